package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/viktsys/varbreach/database"
	"github.com/viktsys/varbreach/models"
	"github.com/viktsys/varbreach/risk"
	"go.uber.org/zap"
)

type QueryParams struct {
	Window         *int     `form:"window" binding:"omitempty,min=1"`
	Confidence     *float64 `form:"confidence" binding:"omitempty,gt=0,lt=1"`
	Returns        string   `form:"returns" binding:"omitempty,oneof=simple log"`
	IncludeCurrent *bool    `form:"include_current"`
}

// Handler serves backtest results computed on demand from the source.
type Handler struct {
	source   database.Source
	defaults risk.Params
	logger   *zap.Logger
}

func NewHandler(source database.Source, defaults risk.Params, logger *zap.Logger) *Handler {
	return &Handler{source: source, defaults: defaults, logger: logger}
}

func (h *Handler) params(c *gin.Context) (risk.Params, error) {
	var q QueryParams
	if err := c.ShouldBindQuery(&q); err != nil {
		return risk.Params{}, err
	}

	p := h.defaults
	if q.Window != nil {
		p.Window = *q.Window
	}
	if q.Confidence != nil {
		p.Confidence = *q.Confidence
	}
	if q.Returns != "" {
		p.Returns = risk.ReturnKind(q.Returns)
	}
	if q.IncludeCurrent != nil {
		p.IncludeCurrent = *q.IncludeCurrent
	}
	return p, p.Validate()
}

func (h *Handler) run(c *gin.Context) (*risk.Result, bool) {
	params, err := h.params(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	prices, err := h.source.LoadPrices(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load prices", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return nil, false
	}

	res, err := risk.Run(prices, params)
	if err != nil {
		h.logger.Error("backtest failed", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return nil, false
	}
	return res, true
}

// GetSummary returns the breach statistics for the requested parameters.
func (h *Handler) GetSummary(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res.Summary)
}

// GetSeries returns the VaR estimates and breach flags along with the summary.
func (h *Handler) GetSeries(c *gin.Context) {
	res, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

// statusFor reports bad stored data as 422 and everything else as 500.
func statusFor(err error) int {
	var dataErr *models.DataError
	if errors.As(err, &dataErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func SetupRoutes(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/api/var/summary", h.GetSummary)
	r.GET("/api/var/series", h.GetSeries)

	return r
}
