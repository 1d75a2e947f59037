// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wayfarer/internal/http/handlers"
	"wayfarer/internal/http/middleware"
	"wayfarer/internal/modules/quality"
)

type RouterDeps struct {
	Planner     handlers.Planner
	Gate        *quality.Gate
	Metrics     *prometheus.Registry
	Log         *zap.Logger
	PlanTimeout time.Duration
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	itineraries := handlers.NewItineraryHandler(deps.Planner, deps.Gate, deps.PlanTimeout)
	api := r.Group("/api")
	api.POST("/itineraries", itineraries.Create)
	api.POST("/itineraries/validate", itineraries.Validate)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}
	return r
}
