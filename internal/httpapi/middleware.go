package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"portfolio-contact/internal/handlers"
	"portfolio-contact/internal/logger"
)

const requestIDHeader = "X-Request-Id"

const preflightMethods = "POST, OPTIONS"

// CORS lets any origin post to the contact endpoint. The form carries no
// credentials. Preflight answers carry the same Allow-Methods value as the
// Lambda.
func CORS() gin.HandlerFunc {
	h := cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{http.MethodPost, http.MethodOptions},
		AllowHeaders:              []string{"Content-Type"},
		AllowCredentials:          false,
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	})
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions && c.GetHeader("Origin") != "" {
			c.Writer = &preflightWriter{ResponseWriter: c.Writer}
		}
		h(c)
	}
}

// preflightWriter rewrites the comma-joined Allow-Methods list cors emits
// right before the header is flushed.
type preflightWriter struct {
	gin.ResponseWriter
}

func (w *preflightWriter) fix() {
	if w.Header().Get("Access-Control-Allow-Methods") != "" {
		w.Header().Set("Access-Control-Allow-Methods", preflightMethods)
	}
}

func (w *preflightWriter) WriteHeader(code int) {
	w.fix()
	w.ResponseWriter.WriteHeader(code)
}

func (w *preflightWriter) WriteHeaderNow() {
	w.fix()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *preflightWriter) Write(b []byte) (int, error) {
	w.fix()
	return w.ResponseWriter.Write(b)
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// Recovery answers 500 with the same generic body the Lambda returns.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if log != nil {
			log.Error("panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		}
		c.Header("Access-Control-Allow-Origin", "*")
		c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.ErrorBody{Error: handlers.MsgInternal})
	})
}
