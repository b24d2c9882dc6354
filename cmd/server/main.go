package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/booking"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/httpapi"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/storage"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/task"
	"github.com/MarkoPoloResearchLab/booking_svc/pkg/apiurl"
)

const (
	commandUseName                    = "server"
	commandShortDescription           = "Run the booking server"
	commandLongDescription            = "Launch the flight and hotel booking HTTP server"
	missingConfigurationMessage       = "missing required configuration"
	invalidConfigurationMessage       = "invalid configuration"
	loggerCreationErrorMessage        = "logger"
	logEventListening                 = "listening"
	logEventShutdown                  = "shutdown"
	logEventInventorySeeded           = "inventory_seeded"
	logFieldAddress                   = "addr"
	logFieldServeMode                 = "serve_mode"
	logFieldAPIBaseURL                = "api_base_url"
	logFieldCount                     = "count"
	flagNameApplicationAddress        = "app-addr"
	flagNameDatabaseDriver            = "db-driver"
	flagNameDatabaseDataSourceName    = "db-dsn"
	flagNameServeMode                 = "serve-mode"
	flagNameAPIBaseURL                = "api-base-url"
	flagNameFrontendOrigin            = "frontend-origin"
	flagNameBookingHoldMinutes        = "booking-hold-minutes"
	flagNameExpirySweepInterval       = "expiry-sweep-interval"
	flagNameSeedInventory             = "seed-inventory"
	flagNameTrustedProxies            = "trusted-proxies"
	flagUsageApplicationAddress       = "address for the HTTP server to listen on"
	flagUsageDatabaseDriver           = "database driver (sqlite or postgres)"
	flagUsageDatabaseDataSourceName   = "database connection string"
	flagUsageServeMode                = "which surfaces to serve: monolith, web, or api"
	flagUsageAPIBaseURL               = "backend base URL embedded in frontend pages (default " + apiurl.DefaultBaseURL + ")"
	flagUsageFrontendOrigin           = "origin allowed to call the API from a browser"
	flagUsageBookingHoldMinutes       = "minutes a pending booking holds its inventory"
	flagUsageExpirySweepInterval      = "interval between expiry sweeps of unpaid bookings"
	flagUsageSeedInventory            = "insert demo inventory into an empty database"
	flagUsageTrustedProxies           = "comma separated proxy IPs or CIDRs allowed to set X-Forwarded-For"
	environmentKeyApplicationAddress  = "APP_ADDR"
	environmentKeyDatabaseDriver      = "DB_DRIVER"
	environmentKeyDatabaseDataSource  = "DB_DSN"
	environmentKeyServeMode           = "SERVE_MODE"
	environmentKeyFrontendOrigin      = "FRONTEND_ORIGIN"
	environmentKeyBookingHoldMinutes  = "BOOKING_HOLD_MINUTES"
	environmentKeyExpirySweepInterval = "EXPIRY_SWEEP_INTERVAL"
	environmentKeySeedInventory       = "SEED_INVENTORY"
	environmentKeyTrustedProxies      = "TRUSTED_PROXIES"
	defaultApplicationAddress         = ":8080"
	defaultDatabaseDriver             = storage.DriverNameSQLite
	defaultFrontendOrigin             = corsOriginWildcard
	defaultBookingHoldMinutes         = 30
	defaultExpirySweepInterval        = time.Minute
	defaultSeedInventory              = true
	expirySchedulerName               = "booking_expiry"
	readHeaderTimeoutSeconds          = 5
	shutdownTimeout                   = 10 * time.Second
	unexpectedArgumentsMessage        = "unexpected command arguments"
	commandInitializationFailure      = "failed to configure command"
	flagNotDefinedMessage             = "flag %s not defined"
	environmentConfigurationError     = "failed to apply environment configuration"
	openDatabaseErrorMessage          = "open database"
	migrateDatabaseErrorMessage       = "migrate database"
	seedInventoryErrorMessage         = "seed inventory"
	serverErrorMessage                = "serve http"
)

type flagBinding struct {
	environmentKey string
	flagName       string
}

var flagBindings = []flagBinding{
	{environmentKey: environmentKeyApplicationAddress, flagName: flagNameApplicationAddress},
	{environmentKey: environmentKeyDatabaseDriver, flagName: flagNameDatabaseDriver},
	{environmentKey: environmentKeyDatabaseDataSource, flagName: flagNameDatabaseDataSourceName},
	{environmentKey: environmentKeyServeMode, flagName: flagNameServeMode},
	{environmentKey: apiurl.EnvironmentKeyBaseURL, flagName: flagNameAPIBaseURL},
	{environmentKey: environmentKeyFrontendOrigin, flagName: flagNameFrontendOrigin},
	{environmentKey: environmentKeyBookingHoldMinutes, flagName: flagNameBookingHoldMinutes},
	{environmentKey: environmentKeyExpirySweepInterval, flagName: flagNameExpirySweepInterval},
	{environmentKey: environmentKeySeedInventory, flagName: flagNameSeedInventory},
	{environmentKey: environmentKeyTrustedProxies, flagName: flagNameTrustedProxies},
}

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	ApplicationAddress     string
	DatabaseDriverName     string
	DatabaseDataSourceName string
	ServeMode              ServeMode
	APIBaseURL             string
	FrontendOrigin         string
	BookingHold            time.Duration
	ExpirySweepInterval    time.Duration
	SeedInventory          bool
	TrustedProxies         []string
}

// DatabaseOpener opens a database connection for the provided configuration.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyApplicationAddress, defaultApplicationAddress)
	application.configurationLoader.SetDefault(environmentKeyDatabaseDriver, defaultDatabaseDriver)
	application.configurationLoader.SetDefault(environmentKeyDatabaseDataSource, "")
	application.configurationLoader.SetDefault(environmentKeyServeMode, string(ServeModeMonolith))
	application.configurationLoader.SetDefault(environmentKeyFrontendOrigin, defaultFrontendOrigin)
	application.configurationLoader.SetDefault(environmentKeyBookingHoldMinutes, defaultBookingHoldMinutes)
	application.configurationLoader.SetDefault(environmentKeyExpirySweepInterval, defaultExpirySweepInterval)
	application.configurationLoader.SetDefault(environmentKeySeedInventory, defaultSeedInventory)
	application.configurationLoader.SetDefault(environmentKeyTrustedProxies, "")
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	commandFlags.String(flagNameApplicationAddress, defaultApplicationAddress, flagUsageApplicationAddress)
	commandFlags.String(flagNameDatabaseDriver, defaultDatabaseDriver, flagUsageDatabaseDriver)
	commandFlags.String(flagNameDatabaseDataSourceName, "", flagUsageDatabaseDataSourceName)
	commandFlags.String(flagNameServeMode, string(ServeModeMonolith), flagUsageServeMode)
	commandFlags.String(flagNameAPIBaseURL, "", flagUsageAPIBaseURL)
	commandFlags.String(flagNameFrontendOrigin, defaultFrontendOrigin, flagUsageFrontendOrigin)
	commandFlags.Int(flagNameBookingHoldMinutes, defaultBookingHoldMinutes, flagUsageBookingHoldMinutes)
	commandFlags.Duration(flagNameExpirySweepInterval, defaultExpirySweepInterval, flagUsageExpirySweepInterval)
	commandFlags.String(flagNameTrustedProxies, "", flagUsageTrustedProxies)
	commandFlags.Bool(flagNameSeedInventory, defaultSeedInventory, flagUsageSeedInventory)

	for _, binding := range flagBindings {
		if bindErr := application.bindFlag(commandFlags, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}
	}

	for _, binding := range flagBindings {
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound || environmentValue == "" {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}

	return nil
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig, configErr := application.loadServerConfig()
	if configErr != nil {
		return configErr
	}

	if validationErr := application.ensureRequiredConfiguration(serverConfig); validationErr != nil {
		return validationErr
	}

	command.SilenceUsage = true

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	serving, servingErr := application.buildRuntime(command.Context(), serverConfig, logger)
	if servingErr != nil {
		return servingErr
	}
	defer serving.close()

	signalContext, stopSignals := signal.NotifyContext(command.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	serving.startBackgroundJobs(signalContext)

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           serving.router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- httpServer.ListenAndServe()
	}()

	logger.Info(logEventListening,
		zap.String(logFieldAddress, serverConfig.ApplicationAddress),
		zap.String(logFieldServeMode, string(serverConfig.ServeMode)),
		zap.String(logFieldAPIBaseURL, serverConfig.APIBaseURL),
	)

	select {
	case serveErr := <-serveErrors:
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("%s: %w", serverErrorMessage, serveErr)
		}
		return nil
	case <-signalContext.Done():
	}

	logger.Info(logEventShutdown)
	shutdownContext, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return httpServer.Shutdown(shutdownContext)
}

func (application *ServerApplication) loadServerConfig() (ServerConfig, error) {
	serveMode, serveModeErr := ParseServeMode(application.configurationLoader.GetString(environmentKeyServeMode))
	if serveModeErr != nil {
		return ServerConfig{}, serveModeErr
	}

	return ServerConfig{
		ApplicationAddress:     application.configurationLoader.GetString(environmentKeyApplicationAddress),
		DatabaseDriverName:     strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDriver)),
		DatabaseDataSourceName: strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDataSource)),
		ServeMode:              serveMode,
		APIBaseURL:             apiurl.ResolveBaseURL(application.configurationLoader),
		FrontendOrigin:         strings.TrimSpace(application.configurationLoader.GetString(environmentKeyFrontendOrigin)),
		BookingHold:            time.Duration(application.configurationLoader.GetInt(environmentKeyBookingHoldMinutes)) * time.Minute,
		ExpirySweepInterval:    application.configurationLoader.GetDuration(environmentKeyExpirySweepInterval),
		SeedInventory:          application.configurationLoader.GetBool(environmentKeySeedInventory),
		TrustedProxies:         parseTrustedProxies(application.configurationLoader.GetString(environmentKeyTrustedProxies)),
	}, nil
}

func (application *ServerApplication) ensureRequiredConfiguration(configuration ServerConfig) error {
	if configuration.ServeMode.ServesBackend() {
		var missingParameters []string

		if configuration.DatabaseDriverName == "" {
			missingParameters = append(missingParameters, flagNameDatabaseDriver)
		}

		if configuration.DatabaseDataSourceName == "" {
			missingParameters = append(missingParameters, flagNameDatabaseDataSourceName)
		}

		if len(missingParameters) > 0 {
			return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
		}
	}

	var invalidParameters []string

	if configuration.BookingHold <= 0 {
		invalidParameters = append(invalidParameters, flagNameBookingHoldMinutes)
	}

	if configuration.ExpirySweepInterval <= 0 {
		invalidParameters = append(invalidParameters, flagNameExpirySweepInterval)
	}

	if len(invalidParameters) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %s", invalidConfigurationMessage, strings.Join(invalidParameters, ", "))
}

// serverRuntime holds the router and the resources it depends on for one serve mode.
type serverRuntime struct {
	router    *gin.Engine
	database  *gorm.DB
	scheduler *task.Scheduler
}

func (application *ServerApplication) buildRuntime(ctx context.Context, serverConfig ServerConfig, logger *zap.Logger) (*serverRuntime, error) {
	router, routerErr := httpapi.NewRouter(logger, serverConfig.TrustedProxies)
	if routerErr != nil {
		return nil, fmt.Errorf("%s: %w", invalidConfigurationMessage, routerErr)
	}

	serving := &serverRuntime{router: router}

	if serverConfig.ServeMode.ServesBackend() {
		database, databaseErr := application.databaseOpener(storage.Config{
			DriverName:     serverConfig.DatabaseDriverName,
			DataSourceName: serverConfig.DatabaseDataSourceName,
		})
		if databaseErr != nil {
			return nil, fmt.Errorf("%s: %w", openDatabaseErrorMessage, databaseErr)
		}
		serving.database = database

		if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
			serving.close()
			return nil, fmt.Errorf("%s: %w", migrateDatabaseErrorMessage, migrateErr)
		}

		if serverConfig.SeedInventory {
			seededCount, seedErr := storage.SeedInventories(ctx, database)
			if seedErr != nil {
				serving.close()
				return nil, fmt.Errorf("%s: %w", seedInventoryErrorMessage, seedErr)
			}
			if seededCount > 0 {
				logger.Info(logEventInventorySeeded, zap.Int(logFieldCount, seededCount))
			}
		}

		bookingService := booking.NewBookingService(database, logger, serverConfig.BookingHold)
		registerBackendRoutes(router, backendHandlers{
			inventory:      httpapi.NewInventoryHandlers(booking.NewInventoryService(database), logger),
			bookings:       httpapi.NewBookingHandlers(bookingService, logger),
			health:         httpapi.NewHealthHandlers(database, logger),
			bookingLimiter: httpapi.NewIPRateLimiter(httpapi.DefaultBookingRequestsPerSecond, httpapi.DefaultBookingRequestBurst),
		}, serverConfig.FrontendOrigin)

		expiryJob := task.NewBookingExpiryJob(bookingService, logger)
		serving.scheduler = task.NewScheduler(expirySchedulerName, serverConfig.ExpirySweepInterval, expiryJob.Run, logger)
	}

	if serverConfig.ServeMode.ServesFrontend() {
		registerFrontendRoutes(router, httpapi.NewWebHandlers(logger, serverConfig.APIBaseURL))
	}

	return serving, nil
}

func (serving *serverRuntime) startBackgroundJobs(ctx context.Context) {
	if serving.scheduler == nil {
		return
	}
	serving.scheduler.Start(ctx)
	serving.scheduler.Trigger()
}

func (serving *serverRuntime) close() {
	serving.scheduler.Stop()
	if serving.database == nil {
		return
	}
	if sqlDatabase, handleErr := serving.database.DB(); handleErr == nil {
		_ = sqlDatabase.Close()
	}
}

func main() {
	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
