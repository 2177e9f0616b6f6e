package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/varbreach/models"
	"github.com/viktsys/varbreach/risk"
	"go.uber.org/zap"
)

type staticSource struct {
	prices []models.PriceObservation
	err    error
}

func (s staticSource) LoadPrices(context.Context) ([]models.PriceObservation, error) {
	return s.prices, s.err
}

func zigzag(n int) []models.PriceObservation {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	pattern := []float64{100, 101, 99, 102}
	prices := make([]models.PriceObservation, n)
	for i := range prices {
		prices[i] = models.PriceObservation{Date: start.AddDate(0, 0, i), Price: pattern[i%len(pattern)]}
	}
	return prices
}

func serve(t *testing.T, src staticSource, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := SetupRoutes(NewHandler(src, risk.DefaultParams(), zap.NewNop()))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := serve(t, staticSource{}, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetSummary(t *testing.T) {
	w := serve(t, staticSource{prices: zigzag(300)}, "/api/var/summary")
	require.Equal(t, http.StatusOK, w.Code)

	var s models.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, 300, s.Rows)
	assert.Equal(t, 250, s.Window)
	assert.Equal(t, 299-250+1, s.DaysTested)
	assert.Equal(t, 5.0, s.ExpectedBreachPct)
}

func TestGetSummaryWithParams(t *testing.T) {
	w := serve(t, staticSource{prices: zigzag(300)}, "/api/var/summary?window=100&confidence=0.99&include_current=false&returns=log")
	require.Equal(t, http.StatusOK, w.Code)

	var s models.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, 100, s.Window)
	assert.Equal(t, 0.99, s.Confidence)
	assert.Equal(t, 299-100, s.DaysTested)
}

func TestGetSeries(t *testing.T) {
	w := serve(t, staticSource{prices: zigzag(260)}, "/api/var/series")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Estimates []models.VaREstimate `json:"estimates"`
		Flags     []models.BreachFlag  `json:"flags"`
		Summary   models.Summary       `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Estimates, 10)
	assert.Len(t, body.Flags, 10)
	for _, e := range body.Estimates {
		assert.LessOrEqual(t, e.Threshold, 0.0)
	}
}

func TestBadParams(t *testing.T) {
	for _, target := range []string{
		"/api/var/summary?window=0x",
		"/api/var/summary?confidence=1.5",
		"/api/var/summary?confidence=0",
		"/api/var/summary?window=0",
		"/api/var/summary?returns=pct",
		"/api/var/series?window=-3",
	} {
		w := serve(t, staticSource{prices: zigzag(10)}, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Contains(t, w.Body.String(), "error", target)
	}
}

func TestSourceErrors(t *testing.T) {
	w := serve(t, staticSource{err: errors.New("connection refused")}, "/api/var/summary")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	dataErr := models.NewDataError(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), models.ErrMissingPrice)
	w = serve(t, staticSource{err: dataErr}, "/api/var/summary")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	dateErr := fmt.Errorf("row 2: %w", models.NewDataError(time.Time{}, models.ErrMissingDate))
	w = serve(t, staticSource{err: dateErr}, "/api/var/summary")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	bad := zigzag(5)
	bad[3].Price = 0
	w = serve(t, staticSource{prices: bad}, "/api/var/summary")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
