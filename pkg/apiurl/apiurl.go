// Package apiurl resolves the backend base URL used by the web frontend and
// builds fully-qualified request URLs from relative API paths.
package apiurl

import (
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const (
	// EnvironmentKeyBaseURL names the configuration key that overrides the backend base URL.
	EnvironmentKeyBaseURL = "API_BASE_URL"
	// DefaultBaseURL is used when no override is configured.
	DefaultBaseURL = "http://localhost:8080"

	pathSeparator = "/"
)

var processBaseURL = sync.OnceValue(func() string {
	return ResolveBaseURL(viper.New())
})

// ResolveBaseURL reads API_BASE_URL through the configuration loader and falls
// back to DefaultBaseURL when the key is unset or empty. The value is returned
// exactly as configured.
func ResolveBaseURL(configurationLoader *viper.Viper) string {
	if configurationLoader == nil {
		configurationLoader = viper.New()
	}
	if bindErr := configurationLoader.BindEnv(EnvironmentKeyBaseURL); bindErr != nil {
		return DefaultBaseURL
	}

	configuredBaseURL := configurationLoader.GetString(EnvironmentKeyBaseURL)
	if configuredBaseURL == "" {
		return DefaultBaseURL
	}
	return configuredBaseURL
}

// BaseURL returns the process-wide base URL. It is resolved from the
// environment on first use and never re-read.
func BaseURL() string {
	return processBaseURL()
}

// Join strips one trailing slash from baseURL and appends path with exactly
// one leading slash. Repeated trailing slashes on the base are not collapsed.
func Join(baseURL string, path string) string {
	trimmedBaseURL := strings.TrimSuffix(baseURL, pathSeparator)
	if !strings.HasPrefix(path, pathSeparator) {
		path = pathSeparator + path
	}
	return trimmedBaseURL + path
}

// Path builds a request URL for path against BaseURL.
func Path(path string) string {
	return Join(BaseURL(), path)
}
