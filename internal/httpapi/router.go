package httpapi

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the engine shared by every serve mode. Forwarding headers
// such as X-Forwarded-For are honored only when the peer is one of
// trustedProxies, so an empty list keys ClientIP on the TCP peer address.
func NewRouter(logger *zap.Logger, trustedProxies []string) (*gin.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(trustedProxies) == 0 {
		trustedProxies = nil
	}

	router := gin.New()
	if proxyErr := router.SetTrustedProxies(trustedProxies); proxyErr != nil {
		return nil, fmt.Errorf("trusted proxies: %w", proxyErr)
	}
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	return router, nil
}
