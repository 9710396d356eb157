package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	Limiter  Limiter
	Recorder RejectionRecorder
	// Metrics, when set, is served on GET /metrics outside the rate limit.
	Metrics http.Handler
}

// NewRouter wires routes and middleware.
func NewRouter(h *Handler, extractor PrincipalExtractor, logger logging.Logger, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(logger))

	r.GET("/healthz", h.Health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	authGroup := r.Group("/auth")
	if opts.Limiter != nil {
		authGroup.Use(RateLimit(opts.Limiter, opts.Recorder))
	}
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.GET("/me", Authenticate(extractor), h.Me)
	}

	return r
}
