package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-contact/internal/handlers"
	"portfolio-contact/internal/logger"
)

// maxBodyBytes bounds what a contact form may post.
const maxBodyBytes = 64 << 10

type RouterConfig struct {
	Contact *handlers.ContactHandler
	Log     *logger.Logger
}

// NewRouter serves the contact endpoint outside Lambda. It mounts the same
// handler under /contact and /api/contact.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(cfg.Log))
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Log))
	r.Use(CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.HealthResponse{OK: true, Service: handlers.ServiceName})
	})

	contact := contactRoute(cfg.Contact)
	r.Any("/contact", contact)
	r.Any("/api/contact", contact)

	return r
}

func contactRoute(h *handlers.ContactHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")

		// Cross-origin preflights are answered by the CORS middleware; this
		// covers OPTIONS without an Origin header.
		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Status(http.StatusOK)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, handlers.ErrorBody{Error: handlers.MsgInvalidJSON})
			return
		}

		status, resp := h.Serve(c.Request.Context(), c.Request.Method, body)
		c.JSON(status, resp)
	}
}
