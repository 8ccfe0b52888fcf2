// Settlement HTTP handlers.
//
// Job postings and job seeking postings share one settlement surface:
//   - PUT /job-postings/{id}            and /job-postings/{id}/settlement
//   - PUT /job-seekings/{id}            and /job-seekings/{id}/settlement
//   - GET /settlements/stats
//
// A settlement_status of "settled" settles the posting (the amount defaults
// to the accrued fee), "unsettled" reverts it, and an omitted status edits
// the amount or memo in place.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/http/middleware"
	"github.com/tbourn/go-agency-backoffice/internal/services"
)

// UpdateSettlementRequest is the JSON payload of the settlement endpoints.
type UpdateSettlementRequest struct {
	SettlementStatus *string          `json:"settlement_status" example:"settled" enums:"settled,unsettled"`
	SettlementAmount *decimal.Decimal `json:"settlement_amount" swaggertype:"string" example:"400000"`
	SettlementMemo   *string          `json:"settlement_memo"   example:"transferred 2025-03-02"`
}

// UpdateSettlement returns the handler for one posting kind. The router
// mounts it once per kind.
//
// @ID          updateJobPostingSettlement
// @Summary     Settle, unsettle or edit the settlement of a posting
// @Description Same contract for /job-postings/{id} and /job-seekings/{id} (with or without the /settlement suffix).
// @Tags        Settlements
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Operator ID"  example(kim)
// @Param       id         path    int     true  "Posting ID"   example(7)
// @Param       body       body    handlers.UpdateSettlementRequest  true  "Settlement change"
//
// @Success     200  {object} domain.JobPosting
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Posting not found"
// @Failure     409  {object} handlers.ErrorResponse "Concurrent update"
// @Failure     422  {object} handlers.ErrorResponse "Already settled / not settled"
// @Router      /job-postings/{id}/settlement [put]
func (h *Handlers) UpdateSettlement(kind domain.PostingKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := pathID(c, "id")
		if !valid {
			return
		}

		var req UpdateSettlementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
		in := services.SettlementInput{Amount: req.SettlementAmount, Memo: req.SettlementMemo}
		if req.SettlementStatus != nil {
			st, err := domain.ParseSettlementStatus(*req.SettlementStatus)
			if err != nil {
				failField(c, http.StatusBadRequest, ErrCodeValidation, err.Error(), "settlement_status")
				return
			}
			in.Status = &st
		}

		p, err := h.settleSvc.Apply(c.Request.Context(), middleware.OperatorID(c), kind, id, in)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusOK, p)
	}
}

// SettlementStats godoc
// @ID          settlementStats
// @Summary     Settlement overview
// @Description Counts and sums of settled and unsettled postings across both posting kinds.
// @Tags        Settlements
// @Produce     json
// @Success     200  {object} services.SettlementStats
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /settlements/stats [get]
func (h *Handlers) SettlementStats(c *gin.Context) {
	st, err := h.settleSvc.Stats(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}
