package httpserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	serviceName     = "chat-forwarder"
	maxRequestBytes = 1 << 20
)

// ProxyHandler is the Lambda-style handler served by the local router.
type ProxyHandler interface {
	Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

type RouterDeps struct {
	Handler     ProxyHandler
	Production  bool
	FrontendURL string
	Version     string
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// BuildRouter returns a gin engine exposing POST /api/chat and GET /health.
func BuildRouter(dep RouterDeps) *gin.Engine {
	if dep.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), accessLog())
	r.Use(cors.New(corsConfig(dep.Production, dep.FrontendURL)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Service:   serviceName,
			Version:   dep.Version,
		})
	})
	r.POST("/api/chat", chatHandler(dep.Handler))
	return r
}

func corsConfig(production bool, frontendURL string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Correlation-Id"},
		ExposeHeaders: []string{"X-Correlation-Id"},
		MaxAge:        12 * time.Hour,
	}
	if production {
		cfg.AllowOrigins = []string{frontendURL}
		cfg.AllowCredentials = true
	} else {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

// chatHandler converts the gin request into a proxy event so the local server
// and the Lambda deployment share one code path.
func chatHandler(h ProxyHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		headers := make(map[string]string, len(c.Request.Header))
		for k := range c.Request.Header {
			headers[k] = c.Request.Header.Get(k)
		}

		resp, err := h.Handle(c.Request.Context(), events.APIGatewayProxyRequest{
			HTTPMethod: c.Request.Method,
			Path:       c.Request.URL.Path,
			Headers:    headers,
			Body:       string(body),
		})
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "proxy handler failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		contentType := "application/json"
		for k, v := range resp.Headers {
			if http.CanonicalHeaderKey(k) == "Content-Type" {
				contentType = v
				continue
			}
			c.Header(k, v)
		}
		c.Data(resp.StatusCode, contentType, []byte(resp.Body))
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.Writer.Header().Get("X-Correlation-Id"),
		)
	}
}
