package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/model"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/storage"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/testutil"
)

const (
	testFlightItemCode               = "GA-100|2026-03-01|CGK-DPS"
	testIdempotencyKey               = "idem-1"
	testUnsupportedDriverName        = "unsupported-driver"
	testUnsupportedDriverDescription = "unsupported driver"
	testMissingDriverDescription     = "missing driver"
	testMissingDataSourceDescription = "missing sqlite data source"
	testMissingPostgresDescription   = "missing postgres data source"
	testExpectedSeedCount            = 4
)

func openMigratedDatabase(testingT *testing.T) *gorm.DB {
	testingT.Helper()
	sqliteDatabase := testutil.NewSQLiteTestDatabase(testingT)

	database, openErr := storage.OpenDatabase(sqliteDatabase.Configuration())
	require.NoError(testingT, openErr)
	database = testutil.ConfigureDatabaseLogger(testingT, database)
	require.NoError(testingT, storage.AutoMigrate(database))
	return database
}

func TestOpenDatabaseWithSQLiteConfiguration(t *testing.T) {
	database := openMigratedDatabase(t)

	inventory, inventoryErr := model.NewInventory(model.InventoryTypeFlight, testFlightItemCode, 10)
	require.NoError(t, inventoryErr)
	require.NoError(t, database.Create(&inventory).Error)
	require.NotZero(t, inventory.ID)

	booking, bookingErr := model.NewBooking(model.BookingInput{
		InventoryID:    inventory.ID,
		Quantity:       1,
		IdempotencyKey: testIdempotencyKey,
		ExpiresAt:      time.Now().Add(time.Hour),
	})
	require.NoError(t, bookingErr)
	require.NoError(t, database.Create(&booking).Error)

	payment, paymentErr := model.NewPayment(booking.ID, decimal.RequireFromString("99.90"), "ref-1")
	require.NoError(t, paymentErr)
	require.NoError(t, database.Create(&payment).Error)

	var fetchedPayment model.Payment
	require.NoError(t, database.First(&fetchedPayment, "booking_id = ?", booking.ID).Error)
	require.True(t, decimal.RequireFromString("99.90").Equal(fetchedPayment.Amount))

	var fetchedInventory model.Inventory
	require.NoError(t, database.First(&fetchedInventory, "id = ?", inventory.ID).Error)
	require.Equal(t, testFlightItemCode, fetchedInventory.ItemCode)
}

func TestOpenDatabaseValidation(t *testing.T) {
	sqliteDatabase := testutil.NewSQLiteTestDatabase(t)

	testCases := []struct {
		name              string
		configuration     storage.Config
		expectedRootError error
	}{
		{
			name: testMissingDriverDescription,
			configuration: storage.Config{
				DriverName:     "",
				DataSourceName: sqliteDatabase.DataSourceName(),
			},
			expectedRootError: storage.ErrMissingDatabaseDriverName,
		},
		{
			name: testUnsupportedDriverDescription,
			configuration: storage.Config{
				DriverName:     testUnsupportedDriverName,
				DataSourceName: sqliteDatabase.DataSourceName(),
			},
			expectedRootError: storage.ErrUnsupportedDatabaseDriver,
		},
		{
			name: testMissingDataSourceDescription,
			configuration: storage.Config{
				DriverName:     storage.DriverNameSQLite,
				DataSourceName: "",
			},
			expectedRootError: storage.ErrMissingDataSourceName,
		},
		{
			name: testMissingPostgresDescription,
			configuration: storage.Config{
				DriverName:     storage.DriverNamePostgres,
				DataSourceName: "  ",
			},
			expectedRootError: storage.ErrMissingDataSourceName,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(testingT *testing.T) {
			_, openErr := storage.OpenDatabase(testCase.configuration)
			require.Error(testingT, openErr)
			require.True(testingT, errors.Is(openErr, testCase.expectedRootError))
		})
	}
}

func TestInventoryUniqueItemCodePerType(t *testing.T) {
	database := openMigratedDatabase(t)

	flight, err := model.NewInventory(model.InventoryTypeFlight, testFlightItemCode, 10)
	require.NoError(t, err)
	require.NoError(t, database.Create(&flight).Error)

	duplicate, err := model.NewInventory(model.InventoryTypeFlight, testFlightItemCode, 3)
	require.NoError(t, err)
	require.Error(t, database.Create(&duplicate).Error)

	hotel, err := model.NewInventory(model.InventoryTypeHotel, testFlightItemCode, 3)
	require.NoError(t, err)
	require.NoError(t, database.Create(&hotel).Error)
}

func TestBookingUniqueIdempotencyKey(t *testing.T) {
	database := openMigratedDatabase(t)

	inventory, err := model.NewInventory(model.InventoryTypeHotel, "AYANA-BALI|VILLA|2026-03-01", 2)
	require.NoError(t, err)
	require.NoError(t, database.Create(&inventory).Error)

	input := model.BookingInput{InventoryID: inventory.ID, Quantity: 1, IdempotencyKey: testIdempotencyKey}
	first, err := model.NewBooking(input)
	require.NoError(t, err)
	require.NoError(t, database.Create(&first).Error)

	second, err := model.NewBooking(input)
	require.NoError(t, err)
	require.Error(t, database.Create(&second).Error)
}

func TestSeedInventoriesRunsOnlyOnEmptyTable(t *testing.T) {
	database := openMigratedDatabase(t)

	insertedCount, seedErr := storage.SeedInventories(context.Background(), database)
	require.NoError(t, seedErr)
	require.Equal(t, testExpectedSeedCount, insertedCount)

	insertedCount, seedErr = storage.SeedInventories(context.Background(), database)
	require.NoError(t, seedErr)
	require.Zero(t, insertedCount)

	var inventories []model.Inventory
	require.NoError(t, database.Order("id").Find(&inventories).Error)
	require.Len(t, inventories, testExpectedSeedCount)
	require.Equal(t, testFlightItemCode, inventories[0].ItemCode)
	for _, inventory := range inventories {
		require.Equal(t, inventory.TotalCapacity, inventory.Available)
	}
}
