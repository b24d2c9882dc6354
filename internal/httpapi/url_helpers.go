package httpapi

import (
	"net/url"

	"github.com/MarkoPoloResearchLab/booking_svc/pkg/apiurl"
)

const (
	apiRouteInventories       = "/api/inventories"
	apiRouteBookings          = "/api/bookings"
	availabilityIDPlaceholder = "{id}"
)

// backendEndpoints holds the absolute backend URLs handed to browser pages.
type backendEndpoints struct {
	BaseURL              string
	Inventories          string
	Bookings             string
	AvailabilityTemplate string
}

// resolveAPIBaseURL falls back to the process base URL only when nothing is
// configured; any other value is used as given.
func resolveAPIBaseURL(configuredBaseURL string) string {
	if configuredBaseURL == "" {
		return apiurl.BaseURL()
	}
	return configuredBaseURL
}

func newBackendEndpoints(apiBaseURL string) backendEndpoints {
	return backendEndpoints{
		BaseURL:              apiBaseURL,
		Inventories:          apiurl.Join(apiBaseURL, apiRouteInventories),
		Bookings:             apiurl.Join(apiBaseURL, apiRouteBookings),
		AvailabilityTemplate: apiurl.Join(apiBaseURL, apiRouteInventories+"/"+availabilityIDPlaceholder+"/availability"),
	}
}

func (endpoints backendEndpoints) booking(bookingID string) string {
	return apiurl.Join(endpoints.BaseURL, apiRouteBookings+"/"+url.PathEscape(bookingID))
}

func (endpoints backendEndpoints) bookingPayments(bookingID string) string {
	return endpoints.booking(bookingID) + "/payments"
}

func (endpoints backendEndpoints) healthURL() string {
	return apiurl.Join(endpoints.BaseURL, HealthPath)
}

func (endpoints backendEndpoints) metricsURL() string {
	return apiurl.Join(endpoints.BaseURL, MetricsPath)
}
