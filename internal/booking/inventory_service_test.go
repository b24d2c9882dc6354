package booking_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/booking"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/model"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/storage"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/testutil"
)

func TestInventoryServiceListsSeededInventory(t *testing.T) {
	database := testutil.NewMigratedDatabase(t)
	_, seedErr := storage.SeedInventories(context.Background(), database)
	require.NoError(t, seedErr)

	service := booking.NewInventoryService(database)

	page, listErr := service.List(context.Background(), booking.InventoryFilter{})
	require.NoError(t, listErr)
	require.Len(t, page.Content, 4)
	require.Equal(t, 0, page.Page)
	require.Equal(t, booking.DefaultPageSize, page.Size)
	require.EqualValues(t, 4, page.TotalElements)
	require.Equal(t, 1, page.TotalPages)
}

func TestInventoryServiceFiltersByTypeAndPages(t *testing.T) {
	database := testutil.NewMigratedDatabase(t)
	_, seedErr := storage.SeedInventories(context.Background(), database)
	require.NoError(t, seedErr)

	service := booking.NewInventoryService(database)
	hotelType := model.InventoryTypeHotel

	firstPage, listErr := service.List(context.Background(), booking.InventoryFilter{Type: &hotelType, Page: 0, Size: 1})
	require.NoError(t, listErr)
	require.Len(t, firstPage.Content, 1)
	require.Equal(t, model.InventoryTypeHotel, firstPage.Content[0].Type)
	require.EqualValues(t, 2, firstPage.TotalElements)
	require.Equal(t, 2, firstPage.TotalPages)

	secondPage, listErr := service.List(context.Background(), booking.InventoryFilter{Type: &hotelType, Page: 1, Size: 1})
	require.NoError(t, listErr)
	require.Len(t, secondPage.Content, 1)
	require.NotEqual(t, firstPage.Content[0].ID, secondPage.Content[0].ID)

	emptyPage, listErr := service.List(context.Background(), booking.InventoryFilter{Type: &hotelType, Page: 5, Size: 1})
	require.NoError(t, listErr)
	require.Empty(t, emptyPage.Content)
	require.EqualValues(t, 2, emptyPage.TotalElements)
}

func TestInventoryServiceClampsPaging(t *testing.T) {
	database := testutil.NewMigratedDatabase(t)
	service := booking.NewInventoryService(database)

	page, listErr := service.List(context.Background(), booking.InventoryFilter{Page: -3, Size: booking.MaxPageSize + 50})
	require.NoError(t, listErr)
	require.Equal(t, 0, page.Page)
	require.Equal(t, booking.MaxPageSize, page.Size)
	require.Zero(t, page.TotalPages)
	require.Empty(t, page.Content)
}

func TestInventoryServiceReturnsEmptyPageFarPastTheEnd(t *testing.T) {
	database := testutil.NewMigratedDatabase(t)
	_, seedErr := storage.SeedInventories(context.Background(), database)
	require.NoError(t, seedErr)

	service := booking.NewInventoryService(database)
	for _, pageIndex := range []int{1, math.MaxInt / 50, math.MaxInt} {
		page, listErr := service.List(context.Background(), booking.InventoryFilter{Page: pageIndex, Size: booking.MaxPageSize})
		require.NoError(t, listErr)
		require.Empty(t, page.Content, "page %d", pageIndex)
		require.Equal(t, pageIndex, page.Page)
		require.EqualValues(t, 4, page.TotalElements)
		require.Equal(t, 1, page.TotalPages)
	}
}

func TestInventoryServiceAvailability(t *testing.T) {
	database := testutil.NewMigratedDatabase(t)
	inventory := testutil.InsertInventory(t, database, model.InventoryTypeFlight, "SQ-951|2026-03-01|CGK-SIN", 5)

	service := booking.NewInventoryService(database)
	availability, availabilityErr := service.Availability(context.Background(), inventory.ID)
	require.NoError(t, availabilityErr)
	require.Equal(t, inventory.ID, availability.InventoryID)
	require.Equal(t, 5, availability.Available)

	_, missingErr := service.Availability(context.Background(), inventory.ID+100)
	require.ErrorIs(t, missingErr, booking.ErrInventoryNotFound)
}
