package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/httpapi"
	"github.com/MarkoPoloResearchLab/booking_svc/pkg/apiurl"
)

const (
	defaultEnvFilePath = "configs/.env.booking"
	defaultOutputDir   = "public"
	dotenvConfigType   = "env"
)

var errRenderFailed = errors.New("render failed")

type renderTarget struct {
	method     string
	path       string
	handler    gin.HandlerFunc
	outputPath string
}

// loadEnvFile reads a dotenv file through viper. The process environment still
// takes precedence over values from the file.
func loadEnvFile(path string) (*viper.Viper, error) {
	configurationLoader := viper.New()
	configurationLoader.SetConfigFile(path)
	configurationLoader.SetConfigType(dotenvConfigType)
	if readErr := configurationLoader.ReadInConfig(); readErr != nil {
		return nil, readErr
	}
	return configurationLoader, nil
}

func renderHTML(handler gin.HandlerFunc, method string, path string) (int, []byte) {
	recorder := httptest.NewRecorder()
	context, _ := gin.CreateTestContext(recorder)
	context.Request = httptest.NewRequest(method, path, nil)
	handler(context)
	return recorder.Code, recorder.Body.Bytes()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func generate(apiBaseURL string, outputDir string) error {
	webHandlers := httpapi.NewWebHandlers(zap.NewNop(), apiBaseURL).
		WithBookingPagePrefix(httpapi.BookingShellPath + "?id=")

	targets := []renderTarget{
		{
			method:     http.MethodGet,
			path:       httpapi.SearchPagePath,
			handler:    webHandlers.RenderSearchPage,
			outputPath: filepath.Join(outputDir, "index.html"),
		},
		{
			method:     http.MethodGet,
			path:       httpapi.BookingShellPath,
			handler:    webHandlers.RenderBookingShell,
			outputPath: filepath.Join(outputDir, "booking/index.html"),
		},
		{
			method:     http.MethodGet,
			path:       httpapi.ConfigScriptPath,
			handler:    webHandlers.ConfigScript,
			outputPath: filepath.Join(outputDir, "config.js"),
		},
	}

	for _, target := range targets {
		status, payload := renderHTML(target.handler, target.method, target.path)
		if status < 200 || status >= 300 {
			return fmt.Errorf("%w: %s returned %d", errRenderFailed, target.path, status)
		}
		payload = bytes.ReplaceAll(payload, []byte("\r\n"), []byte("\n"))
		if err := writeFile(target.outputPath, payload); err != nil {
			return fmt.Errorf("write %s: %w", target.outputPath, err)
		}
	}
	return nil
}

func run(arguments []string, stdout io.Writer) error {
	gin.SetMode(gin.TestMode)

	flagSet := pflag.NewFlagSet("staticfrontend", pflag.ContinueOnError)
	envFilePath := flagSet.String("env-file", defaultEnvFilePath, "path to a booking env file")
	outputDir := flagSet.String("out", defaultOutputDir, "directory to write static assets into")
	if parseErr := flagSet.Parse(arguments); parseErr != nil {
		return parseErr
	}

	configurationLoader, envErr := loadEnvFile(*envFilePath)
	if envErr != nil {
		return fmt.Errorf("read %s: %w", *envFilePath, envErr)
	}

	apiBaseURL := apiurl.ResolveBaseURL(configurationLoader)
	if generateErr := generate(apiBaseURL, *outputDir); generateErr != nil {
		return generateErr
	}

	_, _ = fmt.Fprintln(stdout, "static frontend generated in", *outputDir, "for", apiBaseURL)
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
