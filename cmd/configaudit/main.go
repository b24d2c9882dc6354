package main

import (
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/MarkoPoloResearchLab/booking_svc/pkg/apiurl"
)

const (
	defaultComposePath      = "docker-compose.yml"
	defaultAssetRoot        = "public"
	environmentKeyServeMode = "SERVE_MODE"
	environmentKeyDriver    = "DB_DRIVER"
	environmentKeyDSN       = "DB_DSN"
	environmentKeyOrigin    = "FRONTEND_ORIGIN"
	serveModeMonolith       = "monolith"
	serveModeWeb            = "web"
	serveModeAPI            = "api"
	driverSQLite            = "sqlite"
	driverPostgres          = "postgres"
	originWildcard          = "*"
)

var (
	errAuditFailed         = errors.New("config_audit_failed")
	renderedBaseURLPattern = regexp.MustCompile(`data-api-base-url="([^"]*)"`)
	configScriptPattern    = regexp.MustCompile(`window\.BOOKING_API_BASE_URL\s*=\s*"([^"]*)"`)
)

type stringList []string

func (list *stringList) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*list = nil
		return nil
	}
	switch node.Kind {
	case yaml.ScalarNode:
		if value := strings.TrimSpace(node.Value); value != "" {
			*list = []string{value}
		} else {
			*list = nil
		}
		return nil
	case yaml.SequenceNode:
		entries := make([]string, 0, len(node.Content))
		for _, child := range node.Content {
			if child == nil {
				continue
			}
			if value := strings.TrimSpace(child.Value); value != "" {
				entries = append(entries, value)
			}
		}
		*list = entries
		return nil
	default:
		return fmt.Errorf("unsupported yaml node kind %d for list", node.Kind)
	}
}

type environmentMap map[string]string

func (environment *environmentMap) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*environment = nil
		return nil
	}
	normalized := make(map[string]string)
	switch node.Kind {
	case yaml.MappingNode:
		decoded := make(map[string]string)
		if err := node.Decode(&decoded); err != nil {
			return err
		}
		for key, value := range decoded {
			normalized[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	case yaml.SequenceNode:
		var decoded []string
		if err := node.Decode(&decoded); err != nil {
			return err
		}
		for _, entry := range decoded {
			key, value, _ := strings.Cut(strings.TrimSpace(entry), "=")
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			normalized[key] = strings.TrimSpace(value)
		}
	default:
		return fmt.Errorf("unsupported yaml node kind %d for environment", node.Kind)
	}
	*environment = normalized
	return nil
}

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	EnvFile     stringList     `yaml:"env_file"`
	Environment environmentMap `yaml:"environment"`
	Ports       stringList     `yaml:"ports"`
}

// bookingService is one compose service running the booking server binary.
type bookingService struct {
	name        string
	serveMode   string
	environment map[string]string
	hostPorts   []string
}

func (service bookingService) servesBackend() bool {
	return service.serveMode == serveModeMonolith || service.serveMode == serveModeAPI
}

func (service bookingService) servesFrontend() bool {
	return service.serveMode == serveModeMonolith || service.serveMode == serveModeWeb
}

type auditResult struct {
	errors   []string
	warnings []string
}

func (result *auditResult) addError(message string, arguments ...any) {
	result.errors = append(result.errors, fmt.Sprintf(message, arguments...))
}

func (result *auditResult) addWarning(message string, arguments ...any) {
	result.warnings = append(result.warnings, fmt.Sprintf(message, arguments...))
}

func (result auditResult) ok() bool {
	return len(result.errors) == 0
}

func (result auditResult) report(stdout io.Writer, stderr io.Writer) bool {
	sort.Strings(result.errors)
	sort.Strings(result.warnings)

	for _, warning := range result.warnings {
		_, _ = fmt.Fprintf(stdout, "WARN: %s\n", warning)
	}
	for _, errorMessage := range result.errors {
		_, _ = fmt.Fprintf(stderr, "ERROR: %s\n", errorMessage)
	}
	if !result.ok() {
		_, _ = fmt.Fprintf(stderr, "config-audit failed\n")
		return false
	}
	_, _ = fmt.Fprintf(stdout, "config-audit OK\n")
	return true
}

func main() {
	flagSet := pflag.NewFlagSet("configaudit", pflag.ExitOnError)
	composePath := flagSet.String("compose", defaultComposePath, "docker compose file to audit")
	assetRoots := flagSet.StringSlice("assets", []string{defaultAssetRoot}, "rendered frontend directories, relative to the compose file")
	_ = flagSet.Parse(os.Args[1:])

	if !runAudit(*composePath, *assetRoots).report(os.Stdout, os.Stderr) {
		os.Exit(1)
	}
}

func runAudit(composePath string, assetRoots []string) auditResult {
	var result auditResult

	composeDocument, readErr := os.ReadFile(composePath)
	if readErr != nil {
		result.addError("read compose file %s: %v", composePath, readErr)
		return result
	}

	var compose composeFile
	if decodeErr := yaml.Unmarshal(composeDocument, &compose); decodeErr != nil {
		result.addError("parse compose file %s: %v", composePath, decodeErr)
		return result
	}
	if len(compose.Services) == 0 {
		result.addError("compose file %s: no services defined", composePath)
		return result
	}

	composeDirectory := filepath.Dir(composePath)
	hostPortToService := make(map[string]string)
	var bookingServices []bookingService

	serviceNames := make([]string, 0, len(compose.Services))
	for serviceName := range compose.Services {
		serviceNames = append(serviceNames, serviceName)
	}
	sort.Strings(serviceNames)

	for _, serviceName := range serviceNames {
		service := compose.Services[serviceName]
		hostPorts := checkHostPortCollisions(serviceName, service.Ports, hostPortToService, &result)

		env, envErr := loadServiceEnvironment(composeDirectory, serviceName, service.EnvFile, service.Environment, &result)
		if envErr != nil {
			result.addError("service %s: %v", serviceName, envErr)
			continue
		}

		if serveMode, isBookingService := detectServeMode(env); isBookingService {
			bookingServices = append(bookingServices, bookingService{
				name:        serviceName,
				serveMode:   serveMode,
				environment: env,
				hostPorts:   hostPorts,
			})
		}
	}

	for _, service := range bookingServices {
		checkBookingServiceEnvironment(service, &result)
	}
	topology := newBackendTopology(bookingServices, hostPortToService)
	for _, service := range bookingServices {
		if service.servesFrontend() {
			topology.checkBaseURLTarget("service "+service.name, resolvedBaseURL(service.environment), &result)
		}
	}
	checkFrontendOrigins(bookingServices, &result)
	for _, assetRoot := range assetRoots {
		checkRenderedFrontend(resolveRelativeTo(composeDirectory, assetRoot), topology, &result)
	}

	return result
}

// detectServeMode reports the serve mode of a service configured for the booking
// server. Services without booking configuration keys are not booking services.
func detectServeMode(environment map[string]string) (string, bool) {
	rawMode, hasMode := environment[environmentKeyServeMode]
	_, hasDSN := environment[environmentKeyDSN]
	_, hasBaseURL := environment[apiurl.EnvironmentKeyBaseURL]
	if !hasMode && !hasDSN && !hasBaseURL {
		return "", false
	}
	normalized := strings.ToLower(strings.TrimSpace(rawMode))
	if normalized == "" {
		normalized = serveModeMonolith
	}
	return normalized, true
}

func checkBookingServiceEnvironment(service bookingService, result *auditResult) {
	switch service.serveMode {
	case serveModeMonolith, serveModeWeb, serveModeAPI:
	default:
		result.addError("service %s: %s=%q is not one of monolith, web, api", service.name, environmentKeyServeMode, service.serveMode)
		return
	}

	if service.servesBackend() {
		if strings.TrimSpace(service.environment[environmentKeyDSN]) == "" {
			result.addError("service %s: required env %s is missing or empty", service.name, environmentKeyDSN)
		}
		driver := strings.ToLower(strings.TrimSpace(service.environment[environmentKeyDriver]))
		if driver != "" && driver != driverSQLite && driver != driverPostgres {
			result.addError("service %s: %s=%q is not supported", service.name, environmentKeyDriver, driver)
		}
	}

	if service.servesFrontend() && service.environment[apiurl.EnvironmentKeyBaseURL] == "" {
		result.addWarning("service %s: %s is not set, pages will call %s", service.name, apiurl.EnvironmentKeyBaseURL, apiurl.DefaultBaseURL)
	}
}

// resolvedBaseURL mirrors the server: an unset or empty API_BASE_URL means the default.
func resolvedBaseURL(environment map[string]string) string {
	if configured := environment[apiurl.EnvironmentKeyBaseURL]; configured != "" {
		return configured
	}
	return apiurl.DefaultBaseURL
}

// backendTopology indexes the host ports published by booking backends.
type backendTopology struct {
	hasBackend        bool
	backendPorts      map[string]struct{}
	hostPortToService map[string]string
}

func newBackendTopology(services []bookingService, hostPortToService map[string]string) backendTopology {
	topology := backendTopology{backendPorts: make(map[string]struct{}), hostPortToService: hostPortToService}
	for _, service := range services {
		if !service.servesBackend() {
			continue
		}
		topology.hasBackend = true
		for _, hostPort := range service.hostPorts {
			topology.backendPorts[hostPort] = struct{}{}
		}
	}
	return topology
}

// checkBaseURLTarget reports a browser-facing API base URL that cannot reach a
// booking backend. Remote hosts are outside the compose file and are not checked.
func (topology backendTopology) checkBaseURLTarget(source string, baseURL string, result *auditResult) {
	parsedURL, parseErr := url.Parse(baseURL)
	if parseErr != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		result.addError("%s: %s=%q is not an absolute URL", source, apiurl.EnvironmentKeyBaseURL, baseURL)
		return
	}
	if !isLocalHost(parsedURL.Hostname()) || !topology.hasBackend {
		return
	}
	port := parsedURL.Port()
	if port == "" {
		port = defaultPortForScheme(parsedURL.Scheme)
	}
	if _, published := topology.backendPorts[port]; published {
		return
	}
	if owner, published := topology.hostPortToService[port]; published {
		result.addError("%s: %s targets localhost:%s which is published by %s, not a booking backend", source, apiurl.EnvironmentKeyBaseURL, port, owner)
		return
	}
	result.addError("%s: %s targets localhost:%s which no booking backend publishes", source, apiurl.EnvironmentKeyBaseURL, port)
}

// checkFrontendOrigins warns when a backend restricts CORS to origins that do not
// include a frontend service published on localhost.
func checkFrontendOrigins(services []bookingService, result *auditResult) {
	for _, backend := range services {
		if !backend.servesBackend() {
			continue
		}
		rawOrigins := strings.TrimSpace(backend.environment[environmentKeyOrigin])
		if rawOrigins == "" || strings.Contains(rawOrigins, originWildcard) {
			continue
		}
		for _, frontend := range services {
			if frontend.serveMode != serveModeWeb {
				continue
			}
			for _, hostPort := range frontend.hostPorts {
				if !strings.Contains(rawOrigins, ":"+hostPort) {
					result.addWarning("service %s: %s=%q does not list frontend %s on port %s", backend.name, environmentKeyOrigin, rawOrigins, frontend.name, hostPort)
				}
			}
		}
	}
}

func isLocalHost(hostname string) bool {
	return hostname == "localhost" || hostname == "127.0.0.1"
}

func defaultPortForScheme(scheme string) string {
	if strings.EqualFold(scheme, "https") {
		return "443"
	}
	return "80"
}

func loadServiceEnvironment(composeDirectory string, serviceName string, envFiles []string, environment environmentMap, result *auditResult) (map[string]string, error) {
	merged := make(map[string]string)

	for _, envFile := range envFiles {
		resolvedPath := filepath.Clean(filepath.Join(composeDirectory, envFile))
		if _, statErr := os.Stat(resolvedPath); statErr != nil {
			result.addError("service %s: env_file %s is missing (%v)", serviceName, envFile, statErr)
			continue
		}
		values, duplicates, parseErr := parseDotEnv(resolvedPath)
		if parseErr != nil {
			return nil, fmt.Errorf("parse env_file %s: %w", envFile, parseErr)
		}
		for _, duplicate := range duplicates {
			result.addError("service %s: env_file %s defines %s more than once", serviceName, envFile, duplicate)
		}
		for key, value := range values {
			merged[key] = value
		}
	}

	for key, value := range environment {
		if strings.TrimSpace(key) != "" {
			merged[key] = value
		}
	}

	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: no environment variables resolved", errAuditFailed)
	}
	return merged, nil
}

// parseDotEnv reads KEY=VALUE lines and lists each key assigned more than once.
func parseDotEnv(path string) (map[string]string, []string, error) {
	payload, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, nil, readErr
	}

	entries := make(map[string]string)
	assignments := make(map[string]int)
	var duplicates []string
	for _, rawLine := range strings.Split(string(payload), "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, hasValue := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		key = strings.TrimSpace(key)
		if !hasValue || key == "" {
			continue
		}
		assignments[key]++
		if assignments[key] == 2 {
			duplicates = append(duplicates, key)
		}
		entries[key] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	slices.Sort(duplicates)
	return entries, duplicates, nil
}

// checkHostPortCollisions records the host ports a service publishes and reports
// ports claimed by two services. It returns the ports published by serviceName.
func checkHostPortCollisions(serviceName string, ports []string, hostPortToService map[string]string, result *auditResult) []string {
	var published []string
	for _, mapping := range ports {
		hostPort, ok := parseHostPort(strings.TrimSpace(mapping))
		if !ok {
			continue
		}
		published = append(published, hostPort)
		if existingService, already := hostPortToService[hostPort]; already && existingService != serviceName {
			result.addError("compose: host port %s is published by both %s and %s", hostPort, existingService, serviceName)
			continue
		}
		hostPortToService[hostPort] = serviceName
	}
	return published
}

func parseHostPort(portMapping string) (string, bool) {
	parts := strings.Split(strings.Trim(portMapping, `"`), ":")
	if len(parts) < 2 {
		return "", false
	}
	hostPort := strings.TrimSpace(parts[len(parts)-2])
	if hostPort == "" {
		return "", false
	}
	if _, convErr := strconv.Atoi(hostPort); convErr != nil {
		return "", false
	}
	return hostPort, true
}

func resolveRelativeTo(directory string, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(directory, path)
}

// checkRenderedFrontend verifies the API base URLs baked into pages written by
// staticfrontend. A missing directory means nothing was rendered.
func checkRenderedFrontend(root string, topology backendTopology, result *auditResult) {
	info, statErr := os.Stat(root)
	if statErr != nil {
		if !errors.Is(statErr, fs.ErrNotExist) {
			result.addError("asset scan: stat %s: %v", root, statErr)
		}
		return
	}
	if !info.IsDir() {
		result.addError("asset scan: %s is not a directory", root)
		return
	}

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		baseURLs, extractErr := extractRenderedBaseURLs(path)
		if extractErr != nil {
			return extractErr
		}
		for _, baseURL := range baseURLs {
			topology.checkBaseURLTarget("asset "+path, baseURL, result)
		}
		return nil
	})
	if walkErr != nil {
		result.addError("asset scan: %v", walkErr)
	}
}

func extractRenderedBaseURLs(path string) ([]string, error) {
	var pattern *regexp.Regexp
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html":
		pattern = renderedBaseURLPattern
	case ".js":
		pattern = configScriptPattern
	default:
		return nil, nil
	}

	payload, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, readErr
	}
	var baseURLs []string
	for _, match := range pattern.FindAllSubmatch(payload, -1) {
		baseURLs = append(baseURLs, html.UnescapeString(string(match[1])))
	}
	return baseURLs, nil
}
