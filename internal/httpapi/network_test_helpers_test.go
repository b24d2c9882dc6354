package httpapi_test

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

// startLoopbackBackend serves handler on an ephemeral loopback port so a
// headless browser can reach it. Sandboxes without loopback skip the test.
func startLoopbackBackend(testingT *testing.T, handler http.Handler) *httptest.Server {
	testingT.Helper()

	listener, listenErr := net.Listen("tcp4", "127.0.0.1:0")
	if listenErr != nil {
		testingT.Skipf("loopback listener unavailable for booking backend: %v", listenErr)
	}
	backend := httptest.NewUnstartedServer(handler)
	_ = backend.Listener.Close()
	backend.Listener = listener
	backend.Start()
	testingT.Cleanup(backend.Close)
	return backend
}
