package httpapi

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/booking_svc/pkg/footer"
)

const (
	// SearchPagePath serves the inventory search page.
	SearchPagePath = "/"
	// BookingPagePathPrefix prefixes the booking status page of one booking.
	BookingPagePathPrefix = "/bookings/"
	// BookingShellPath serves the booking status page that reads the booking id from ?id=.
	BookingShellPath = "/booking/"
	// ConfigScriptPath serves the browser-side API base URL.
	ConfigScriptPath = "/config.js"

	searchTemplateName       = "search"
	bookingTemplateName      = "booking"
	searchPageTitle          = "Find flights and hotels"
	bookingPageTitle         = "Your booking"
	htmlContentType          = "text/html; charset=utf-8"
	javaScriptContentType    = "application/javascript; charset=utf-8"
	configScriptGlobalName   = "BOOKING_API_BASE_URL"
	footerElementID          = "site-footer"
	footerBaseClass          = "site-footer"
	footerBrandText          = "Booking demo"
	footerHealthLabel        = "API health"
	footerMetricsLabel       = "API metrics"
	errorValueRenderFailed   = "render_failed"
	errorValueMissingBooking = "missing_booking_id"
)

type searchPageData struct {
	Title             string
	Styles            template.CSS
	Endpoints         backendEndpoints
	BookingPagePrefix string
	FooterHTML        template.HTML
}

type bookingPageData struct {
	Title          string
	Styles         template.CSS
	BookingID      string
	BookingsURL    string
	BookingURL     string
	PaymentsURL    string
	SearchPagePath string
	FooterHTML     template.HTML
}

// WebHandlers renders the browser frontend. Every backend URL embedded in a
// page is built from the configured API base URL.
type WebHandlers struct {
	logger            *zap.Logger
	endpoints         backendEndpoints
	bookingPagePrefix string
	searchTemplate    *template.Template
	bookingTemplate   *template.Template
}

// NewWebHandlers constructs the frontend handlers. An empty apiBaseURL selects
// the process-wide base URL resolved from API_BASE_URL.
func NewWebHandlers(logger *zap.Logger, apiBaseURL string) *WebHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebHandlers{
		logger:            logger,
		endpoints:         newBackendEndpoints(resolveAPIBaseURL(apiBaseURL)),
		bookingPagePrefix: BookingPagePathPrefix,
		searchTemplate:    template.Must(template.New(searchTemplateName).Parse(searchPageTemplateHTML)),
		bookingTemplate:   template.Must(template.New(bookingTemplateName).Parse(bookingPageTemplateHTML)),
	}
}

// WithBookingPagePrefix changes where the search page sends the browser after
// a booking is created. The booking id is appended to the prefix.
func (handlers *WebHandlers) WithBookingPagePrefix(prefix string) *WebHandlers {
	if strings.TrimSpace(prefix) != "" {
		handlers.bookingPagePrefix = prefix
	}
	return handlers
}

// APIBaseURL returns the backend base URL the pages talk to.
func (handlers *WebHandlers) APIBaseURL() string {
	return handlers.endpoints.BaseURL
}

// RenderSearchPage writes the inventory search page.
func (handlers *WebHandlers) RenderSearchPage(context *gin.Context) {
	data := searchPageData{
		Title:             searchPageTitle,
		Styles:            template.CSS(sharedPageStyles),
		Endpoints:         handlers.endpoints,
		BookingPagePrefix: handlers.bookingPagePrefix,
		FooterHTML:        handlers.renderFooter(),
	}
	handlers.writePage(context, handlers.searchTemplate, data, "render_search_page")
}

// RenderBookingPage writes the status and payment page of one booking.
func (handlers *WebHandlers) RenderBookingPage(context *gin.Context) {
	bookingID := strings.TrimSpace(context.Param(pathParameterID))
	if bookingID == "" {
		context.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errorValueMissingBooking})
		return
	}
	data := handlers.bookingPage()
	data.BookingID = bookingID
	data.BookingURL = handlers.endpoints.booking(bookingID)
	data.PaymentsURL = handlers.endpoints.bookingPayments(bookingID)
	handlers.writePage(context, handlers.bookingTemplate, data, "render_booking_page")
}

// RenderBookingShell writes the booking page without a booking id. The page
// script takes the id from the query string, which lets the page be served
// from static hosting.
func (handlers *WebHandlers) RenderBookingShell(context *gin.Context) {
	handlers.writePage(context, handlers.bookingTemplate, handlers.bookingPage(), "render_booking_shell")
}

func (handlers *WebHandlers) bookingPage() bookingPageData {
	return bookingPageData{
		Title:          bookingPageTitle,
		Styles:         template.CSS(sharedPageStyles),
		BookingsURL:    handlers.endpoints.Bookings,
		SearchPagePath: SearchPagePath,
		FooterHTML:     handlers.renderFooter(),
	}
}

// ConfigScript exposes the API base URL to scripts loaded by other pages.
func (handlers *WebHandlers) ConfigScript(context *gin.Context) {
	encodedBaseURL, encodeErr := json.Marshal(handlers.endpoints.BaseURL)
	if encodeErr != nil {
		handlers.logger.Error("render_config_script", zap.Error(encodeErr))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errorValueRenderFailed})
		return
	}
	script := "window." + configScriptGlobalName + " = " + string(encodedBaseURL) + ";\n"
	context.Data(http.StatusOK, javaScriptContentType, []byte(script))
}

func (handlers *WebHandlers) renderFooter() template.HTML {
	footerHTML, footerErr := footer.Render(footer.Config{
		ElementID:  footerElementID,
		BaseClass:  footerBaseClass,
		BrandText:  footerBrandText,
		BackendURL: handlers.endpoints.BaseURL,
		Links: []footer.Link{
			{Label: footerHealthLabel, URL: handlers.endpoints.healthURL()},
			{Label: footerMetricsLabel, URL: handlers.endpoints.metricsURL()},
		},
	})
	if footerErr != nil {
		handlers.logger.Error("render_footer", zap.Error(footerErr))
		return template.HTML("")
	}
	return footerHTML
}

func (handlers *WebHandlers) writePage(context *gin.Context, pageTemplate *template.Template, data any, event string) {
	var buffer bytes.Buffer
	if executeErr := pageTemplate.Execute(&buffer, data); executeErr != nil {
		handlers.logger.Error(event, zap.Error(executeErr))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errorValueRenderFailed})
		return
	}
	context.Data(http.StatusOK, htmlContentType, buffer.Bytes())
}
