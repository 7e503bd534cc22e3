package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cryptoPortfolioSim/internal/chart"
	"cryptoPortfolioSim/internal/market"
	"cryptoPortfolioSim/internal/portfolio"
	"cryptoPortfolioSim/internal/prices"
)

// PriceLoader is the part of prices.Store the API needs.
type PriceLoader interface {
	Load(ctx context.Context) (*prices.Table, error)
	Refresh(ctx context.Context) (*prices.Table, error)
	Symbols() []string
}

type Server struct {
	prices PriceLoader
	charts *chart.Renderer
	log    *logrus.Logger
	now    func() time.Time
}

func New(p PriceLoader, charts *chart.Renderer, log *logrus.Logger) *Server {
	return &Server{prices: p, charts: charts, log: log, now: time.Now}
}

// Router registers the API routes and, when webhook is non-nil, the
// Telegram webhook at /telegram/webhook.
func (s *Server) Router(webhook http.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	api := r.Group("/api")
	api.GET("/coins", s.handleCoins)
	api.GET("/prices", s.handlePrices)
	api.POST("/prices/refresh", s.handleRefresh)
	api.GET("/portfolio", s.handlePortfolio)
	api.GET("/portfolio/chart.png", s.handleChart)
	api.GET("/portfolio/growth.png", s.handleGrowthChart)
	api.GET("/portfolio/export.xlsx", s.handleExport)
	if webhook != nil {
		r.POST("/telegram/webhook", gin.WrapF(webhook))
	}
	return r
}

func ListenAndServe(addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	return srv.ListenAndServe()
}

// requestLogger tags each request with an id and logs it when done.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("http: request")
	}
}

// abort maps core errors to HTTP statuses.
func (s *Server) abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, portfolio.ErrInvalidAllocation),
		errors.Is(err, portfolio.ErrEmptyWindow),
		errors.Is(err, portfolio.ErrZeroBasePrice):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, portfolio.ErrInvalidInvestment),
		errors.Is(err, portfolio.ErrUnknownCoin),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, market.ErrDataFetch):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("request_id", c.GetString("request_id")).Error("http: request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
