package main_test

import (
	"bytes"
	"strings"
	"testing"

	"gorm.io/gorm"

	servercmd "github.com/MarkoPoloResearchLab/booking_svc/cmd/server"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/storage"
)

const (
	testEnvironmentKeyDatabaseDataSourceName = "DB_DSN"
	testEnvironmentKeyServeMode              = "SERVE_MODE"
	testEnvironmentKeyBookingHoldMinutes     = "BOOKING_HOLD_MINUTES"
	testPlaceholderDatabaseDSN               = "file:booking.db"
	testMissingConfigurationMessage          = "missing required configuration"
	testInvalidConfigurationMessage          = "invalid configuration"
	testInvalidServeModeMessage              = "invalid serve mode"
	testFlagNameDatabaseDataSource           = "db-dsn"
	testFlagNameBookingHoldMinutes           = "booking-hold-minutes"
	testFlagIndicator                        = "--"
	testUsagePrefix                          = "Usage:"
)

func TestServerCommandRejectsConfigurationBeforeOpeningDatabase(t *testing.T) {
	testCases := []struct {
		name                   string
		databaseDataSourceName string
		serveMode              string
		bookingHoldMinutes     string
		expectedMessage        string
		expectedFlag           string
	}{
		{
			name:                   "missing database dsn in monolith mode",
			databaseDataSourceName: "",
			serveMode:              "",
			expectedMessage:        testMissingConfigurationMessage,
			expectedFlag:           testFlagNameDatabaseDataSource,
		},
		{
			name:                   "missing database dsn in api mode",
			databaseDataSourceName: "",
			serveMode:              "api",
			expectedMessage:        testMissingConfigurationMessage,
			expectedFlag:           testFlagNameDatabaseDataSource,
		},
		{
			name:                   "non positive booking hold",
			databaseDataSourceName: testPlaceholderDatabaseDSN,
			serveMode:              "api",
			bookingHoldMinutes:     "0",
			expectedMessage:        testInvalidConfigurationMessage,
			expectedFlag:           testFlagNameBookingHoldMinutes,
		},
		{
			name:                   "unknown serve mode",
			databaseDataSourceName: testPlaceholderDatabaseDSN,
			serveMode:              "worker",
			expectedMessage:        testInvalidServeModeMessage,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Setenv(testEnvironmentKeyDatabaseDataSourceName, testCase.databaseDataSourceName)
			t.Setenv(testEnvironmentKeyServeMode, testCase.serveMode)
			t.Setenv(testEnvironmentKeyBookingHoldMinutes, testCase.bookingHoldMinutes)

			databaseOpenerStub := func(configuration storage.Config) (*gorm.DB, error) {
				t.Fatalf("database opener invoked with %s", configuration.DataSourceName)
				return nil, nil
			}

			application := servercmd.NewServerApplication().WithDatabaseOpener(databaseOpenerStub)
			command, commandErr := application.Command()
			if commandErr != nil {
				t.Fatalf("unexpected command construction error: %v", commandErr)
			}

			commandOutput := &bytes.Buffer{}
			command.SetOut(commandOutput)
			command.SetErr(commandOutput)
			command.SetArgs([]string{})

			executionErr := command.Execute()
			if executionErr == nil {
				t.Fatalf("expected configuration error")
			}

			combinedOutput := commandOutput.String()
			if !strings.Contains(combinedOutput, testCase.expectedMessage) {
				t.Fatalf("expected combined output to mention %q: %s", testCase.expectedMessage, combinedOutput)
			}

			if !strings.Contains(combinedOutput, testUsagePrefix) {
				t.Fatalf("expected combined output to include usage instructions: %s", combinedOutput)
			}

			if testCase.expectedFlag == "" {
				return
			}
			expectedFlagIndicator := testFlagIndicator + testCase.expectedFlag
			if !strings.Contains(combinedOutput, expectedFlagIndicator) {
				t.Fatalf("expected help output to include flag %s, actual output: %s", expectedFlagIndicator, combinedOutput)
			}
		})
	}
}

func TestServerCommandRejectsPositionalArguments(t *testing.T) {
	application := servercmd.NewServerApplication()
	command, commandErr := application.Command()
	if commandErr != nil {
		t.Fatalf("unexpected command construction error: %v", commandErr)
	}

	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{"extra"})

	executionErr := command.Execute()
	if executionErr == nil || !strings.Contains(executionErr.Error(), "unexpected command arguments") {
		t.Fatalf("expected unexpected arguments error, got %v", executionErr)
	}
}

func TestServerCommandHelpListsEveryFlag(t *testing.T) {
	application := servercmd.NewServerApplication()
	command, commandErr := application.Command()
	if commandErr != nil {
		t.Fatalf("unexpected command construction error: %v", commandErr)
	}

	var output bytes.Buffer
	command.SetOut(&output)
	command.SetErr(&output)
	command.SetArgs([]string{"--help"})
	if executionErr := command.Execute(); executionErr != nil {
		t.Fatalf("help failed: %v", executionErr)
	}

	for _, flagName := range []string{
		"app-addr", "db-driver", "db-dsn", "serve-mode", "api-base-url", "frontend-origin",
		"booking-hold-minutes", "expiry-sweep-interval", "seed-inventory", "trusted-proxies",
	} {
		if !strings.Contains(output.String(), testFlagIndicator+flagName) {
			t.Fatalf("expected help output to list --%s, actual output: %s", flagName, output.String())
		}
	}
}
