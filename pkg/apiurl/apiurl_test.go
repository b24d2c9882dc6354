package apiurl_test

import (
	"os"
	"sync"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/booking_svc/pkg/apiurl"
)

const (
	testOverrideBaseURL        = "https://api.example.com/"
	testFlagNameAPIBaseURL     = "api-base-url"
	testFlagOverrideBaseURL    = "https://flag.example.com"
	testFlightSearchPath       = "/flights/search"
	testRelativeBookingsPath   = "api/bookings"
	testTrailingSlashBaseURL   = "http://localhost:8080/"
	testDoubleSlashBaseURL     = "http://x//"
	testConcurrentReaderCount  = 16
	testWhitespaceOnlyOverride = "   "
)

func TestResolveBaseURLFallsBackToDefault(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(*testing.T)
	}{
		{
			name: "unset",
			setup: func(testingT *testing.T) {
				require.NoError(testingT, os.Unsetenv(apiurl.EnvironmentKeyBaseURL))
			},
		},
		{
			name: "empty",
			setup: func(testingT *testing.T) {
				testingT.Setenv(apiurl.EnvironmentKeyBaseURL, "")
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			testingT.Setenv(apiurl.EnvironmentKeyBaseURL, "")
			testCase.setup(testingT)
			require.Equal(testingT, apiurl.DefaultBaseURL, apiurl.ResolveBaseURL(viper.New()))
		})
	}
}

func TestResolveBaseURLReturnsOverrideUntrimmed(t *testing.T) {
	t.Setenv(apiurl.EnvironmentKeyBaseURL, testOverrideBaseURL)
	require.Equal(t, testOverrideBaseURL, apiurl.ResolveBaseURL(viper.New()))
}

func TestResolveBaseURLKeepsWhitespaceOverride(t *testing.T) {
	t.Setenv(apiurl.EnvironmentKeyBaseURL, testWhitespaceOnlyOverride)
	require.Equal(t, testWhitespaceOnlyOverride, apiurl.ResolveBaseURL(viper.New()))
}

func TestResolveBaseURLAcceptsNilLoader(t *testing.T) {
	t.Setenv(apiurl.EnvironmentKeyBaseURL, testOverrideBaseURL)
	require.Equal(t, testOverrideBaseURL, apiurl.ResolveBaseURL(nil))
}

func TestResolveBaseURLPrefersChangedFlag(t *testing.T) {
	t.Setenv(apiurl.EnvironmentKeyBaseURL, testOverrideBaseURL)

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.String(testFlagNameAPIBaseURL, "", "")
	require.NoError(t, flagSet.Parse([]string{"--" + testFlagNameAPIBaseURL + "=" + testFlagOverrideBaseURL}))

	configurationLoader := viper.New()
	require.NoError(t, configurationLoader.BindPFlag(apiurl.EnvironmentKeyBaseURL, flagSet.Lookup(testFlagNameAPIBaseURL)))

	require.Equal(t, testFlagOverrideBaseURL, apiurl.ResolveBaseURL(configurationLoader))
}

func TestJoin(t *testing.T) {
	testCases := []struct {
		name     string
		baseURL  string
		path     string
		expected string
	}{
		{
			name:     "leading slash on trailing slash base",
			baseURL:  testTrailingSlashBaseURL,
			path:     testFlightSearchPath,
			expected: "http://localhost:8080/flights/search",
		},
		{
			name:     "relative path gains slash",
			baseURL:  apiurl.DefaultBaseURL,
			path:     testRelativeBookingsPath,
			expected: "http://localhost:8080/api/bookings",
		},
		{
			name:     "relative path on trailing slash base",
			baseURL:  testTrailingSlashBaseURL,
			path:     testRelativeBookingsPath,
			expected: "http://localhost:8080/api/bookings",
		},
		{
			name:     "empty path",
			baseURL:  apiurl.DefaultBaseURL,
			path:     "",
			expected: "http://localhost:8080/",
		},
		{
			name:     "only one trailing slash stripped",
			baseURL:  testDoubleSlashBaseURL,
			path:     "/y",
			expected: "http://x//y",
		},
		{
			name:     "path slashes are preserved",
			baseURL:  apiurl.DefaultBaseURL,
			path:     "//double",
			expected: "http://localhost:8080//double",
		},
		{
			name:     "base with sub path",
			baseURL:  "https://api.example.com/v1/",
			path:     "inventories",
			expected: "https://api.example.com/v1/inventories",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			require.Equal(testingT, testCase.expected, apiurl.Join(testCase.baseURL, testCase.path))
		})
	}
}

func TestBaseURLIsStableAcrossCalls(t *testing.T) {
	first := apiurl.BaseURL()
	second := apiurl.BaseURL()
	require.Equal(t, first, second)
	require.NotEmpty(t, first)
}

func TestBaseURLIsSafeForConcurrentReaders(t *testing.T) {
	expected := apiurl.BaseURL()

	var waitGroup sync.WaitGroup
	results := make([]string, testConcurrentReaderCount)
	for index := range results {
		waitGroup.Add(1)
		go func(position int) {
			defer waitGroup.Done()
			results[position] = apiurl.BaseURL()
		}(index)
	}
	waitGroup.Wait()

	for _, result := range results {
		require.Equal(t, expected, result)
	}
}

func TestPathUsesProcessBaseURL(t *testing.T) {
	require.Equal(t, apiurl.Join(apiurl.BaseURL(), testFlightSearchPath), apiurl.Path(testFlightSearchPath))
	require.Equal(t, apiurl.Join(apiurl.BaseURL(), "/flights"), apiurl.Path("flights"))
}
