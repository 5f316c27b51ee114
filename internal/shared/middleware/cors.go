package middleware

import (
	"slices"
	"time"

	"github.com/communitylink/membership-api/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// headers the registration and portal front ends always send
var requiredHeaders = []string{"Origin", "Content-Type", AuthorizationHeader, RequestIDHeader}

// CORS admits the registration and portal front ends. The payment webhook is
// server to server and unaffected.
func CORS(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     allowHeaders(cfg.CORS.AllowedHeaders),
		AllowCredentials: cfg.CORS.AllowCredentials,
		ExposeHeaders:    []string{RequestIDHeader},
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}

	if slices.Contains(cfg.CORS.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	}

	return cors.New(corsConfig)
}

func allowHeaders(configured []string) []string {
	if slices.Contains(configured, "*") {
		return configured
	}
	headers := slices.Clone(configured)
	for _, h := range requiredHeaders {
		if !slices.Contains(headers, h) {
			headers = append(headers, h)
		}
	}
	return headers
}
