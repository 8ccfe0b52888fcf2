package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-agency-backoffice/internal/http/middleware"
)

// DashboardStats godoc
// @ID          dashboardStats
// @Summary     Dashboard counters
// @Description Customer and posting totals, active matchings, revenue from completed matchings and the still-unsettled part of it. May be served from a short-lived cache.
// @Tags        Dashboard
// @Produce     json
// @Success     200  {object} services.DashboardStats
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dashboard/stats [get]
func (h *Handlers) DashboardStats(c *gin.Context) {
	st, err := h.dashSvc.Stats(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// FeePreview godoc
// @ID          feePreview
// @Summary     Preview a fee split
// @Description Computes employer and employee fees for an amount without creating anything.
// @Tags        Fees
// @Produce     json
// @Param       amount         query  string  true  "Agreed salary"      example(4000000)
// @Param       employer_rate  query  string  false "Employer rate in %" example(10)
// @Param       employee_rate  query  string  false "Employee rate in %" example(8)
// @Success     200  {object} fee.Breakdown
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Router      /fees/preview [get]
func (h *Handlers) FeePreview(c *gin.Context) {
	amount, valid := decimalQuery(c, "amount", true)
	if !valid {
		return
	}
	er, valid := decimalQuery(c, "employer_rate", false)
	if !valid {
		return
	}
	ee, valid := decimalQuery(c, "employee_rate", false)
	if !valid {
		return
	}

	b, err := h.fees.Breakdown(amount, er, ee)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	ok(c, http.StatusOK, b)
}

func decimalQuery(c *gin.Context, name string, required bool) (decimal.Decimal, bool) {
	raw := c.Query(name)
	if raw == "" {
		if required {
			failField(c, http.StatusBadRequest, ErrCodeValidation, name+": is required", name)
			return decimal.Zero, false
		}
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		failField(c, http.StatusBadRequest, ErrCodeValidation, name+": must be a decimal number", name)
		return decimal.Zero, false
	}
	return d, true
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	DB     string `json:"db"     example:"up"`
}

// Health godoc
// @ID          health
// @Summary     Liveness and storage check
// @Tags        Health
// @Produce     json
// @Success     200  {object} handlers.HealthResponse
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	if h.health == nil {
		ok(c, http.StatusOK, HealthResponse{Status: "ok", DB: "unknown"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.health.PingContext(ctx); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("health check failed")
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "database unavailable")
		return
	}
	ok(c, http.StatusOK, HealthResponse{Status: "ok", DB: "up"})
}
