// Matching HTTP handlers.
//
// This file exposes REST endpoints for matchings:
//   - POST   /matchings                (create, idempotent with Idempotency-Key)
//   - GET    /matchings                (list, paginated, ETag support)
//   - GET    /matchings/{id}           (read)
//   - PUT    /matchings/{id}           (partial update, may complete or cancel)
//   - POST   /matchings/{id}/complete  (complete, idempotent)
//   - POST   /matchings/{id}/cancel    (cancel, idempotent)
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/http/middleware"
	"github.com/tbourn/go-agency-backoffice/internal/repo"
	"github.com/tbourn/go-agency-backoffice/internal/services"
)

//
// DTOs
//

// CreateMatchingRequest is the JSON payload for creating a matching. Money
// and rates accept JSON strings or numbers.
type CreateMatchingRequest struct {
	JobPostingID        int64            `json:"job_posting_id"         example:"7"`
	JobSeekingPostingID int64            `json:"job_seeking_posting_id" example:"12"`
	AgreedSalary        decimal.Decimal  `json:"agreed_salary"          swaggertype:"string" example:"4000000"`
	EmployerFeeRate     *decimal.Decimal `json:"employer_fee_rate"      swaggertype:"string" example:"10"`
	EmployeeFeeRate     *decimal.Decimal `json:"employee_fee_rate"      swaggertype:"string" example:"8"`
	// Moves both postings to in_progress; the server default applies when omitted.
	MarkPostingsInProgress *bool `json:"mark_postings_in_progress,omitempty"`
}

// UpdateMatchingRequest is a partial update. Omitted fields are unchanged.
type UpdateMatchingRequest struct {
	AgreedSalary       *decimal.Decimal `json:"agreed_salary"       swaggertype:"string" example:"4200000"`
	EmployerFeeRate    *decimal.Decimal `json:"employer_fee_rate"   swaggertype:"string" example:"10"`
	EmployeeFeeRate    *decimal.Decimal `json:"employee_fee_rate"   swaggertype:"string" example:"8"`
	MatchingStatus     *string          `json:"matching_status"     example:"Completed" enums:"InProgress,Completed,Cancelled"`
	CancellationReason *string          `json:"cancellation_reason" example:"candidate withdrew"`
}

// CancelMatchingRequest is the optional body of the cancel endpoint.
type CancelMatchingRequest struct {
	CancellationReason *string `json:"cancellation_reason" example:"employer closed the position"`
}

// ListMatchingsResponse wraps a page of matchings and pagination information.
type ListMatchingsResponse struct {
	Matchings  []domain.Matching `json:"matchings"`
	Pagination Pagination        `json:"pagination"`
}

//
// Handlers
//

// CreateMatching godoc
// @ID          createMatching
// @Summary     Create a matching
// @Description Pairs an open job posting with an open job seeking posting and computes both fees.
// @Tags        Matchings
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "Operator ID"                    example(kim)
// @Param       Idempotency-Key  header  string  false "Makes retries safe"             example(3f7c2a9e-create)
// @Param       body             body    handlers.CreateMatchingRequest  true  "Create matching payload"
//
// @Success     201  {object}  domain.Matching
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Posting not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Posting already matched"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /matchings [post]
func (h *Handlers) CreateMatching(c *gin.Context) {
	if h.replayMatching(c, http.StatusCreated) {
		return
	}

	var req CreateMatchingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	m, err := h.matchSvc.Create(c.Request.Context(), middleware.OperatorID(c), services.CreateMatchingInput{
		JobPostingID:           req.JobPostingID,
		JobSeekingPostingID:    req.JobSeekingPostingID,
		AgreedSalary:           req.AgreedSalary,
		EmployerFeeRate:        req.EmployerFeeRate,
		EmployeeFeeRate:        req.EmployeeFeeRate,
		MarkPostingsInProgress: req.MarkPostingsInProgress,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, m.ID, http.StatusCreated)
	c.Header("Location", fmt.Sprintf("%s/%d", c.FullPath(), m.ID))
	ok(c, http.StatusCreated, m)
}

// ListMatchings godoc
// @ID          listMatchings
// @Summary     List matchings (paginated)
// @Description Returns matchings newest first, optionally filtered by status. Supports weak ETag via If-None-Match.
// @Tags        Matchings
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       status         query   string  false "Filter by status"  Enums(InProgress, Completed, Cancelled)
// @Param       page           query   int     false "Page number"       minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"    minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMatchingsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /matchings [get]
func (h *Handlers) ListMatchings(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	var status *domain.MatchingStatus
	if raw := c.Query("status"); raw != "" {
		st, err := domain.ParseMatchingStatus(raw)
		if err != nil {
			failField(c, http.StatusBadRequest, ErrCodeValidation, err.Error(), "status")
			return
		}
		status = &st
	}

	// ETag pre-check (best effort).
	if svc, isConcrete := h.matchSvc.(*services.MatchingService); isConcrete && svc.DB != nil {
		count, maxTS, err := repo.MatchingsStats(ctx, svc.DB, status)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			filter := "all"
			if status != nil {
				filter = string(*status)
			}
			etag := fmt.Sprintf(`W/"matchings:%s:%d:%d:%d:%d"`, filter, count, ts, page, pageSize)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.matchSvc.ListPage(ctx, status, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListMatchingsResponse{
		Matchings:  items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetMatching godoc
// @ID          getMatching
// @Summary     Get a matching
// @Tags        Matchings
// @Produce     json
// @Param       id   path      int  true  "Matching ID"  example(1)
// @Success     200  {object}  domain.Matching
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Matching not found"
// @Router      /matchings/{id} [get]
func (h *Handlers) GetMatching(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	m, err := h.matchSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// UpdateMatching godoc
// @ID          updateMatching
// @Summary     Update a matching
// @Description Edits salary or rates of an InProgress matching (fees are recomputed) and optionally completes or cancels it.
// @Tags        Matchings
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Operator ID"  example(kim)
// @Param       id         path    int     true  "Matching ID"  example(1)
// @Param       body       body    handlers.UpdateMatchingRequest  true  "Fields to change"
//
// @Success     200  {object} domain.Matching
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Matching not found"
// @Failure     409  {object} handlers.ErrorResponse "Concurrent update"
// @Failure     422  {object} handlers.ErrorResponse "Matching is not InProgress"
// @Router      /matchings/{id} [put]
func (h *Handlers) UpdateMatching(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	var req UpdateMatchingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	in := services.UpdateMatchingInput{
		AgreedSalary:       req.AgreedSalary,
		EmployerFeeRate:    req.EmployerFeeRate,
		EmployeeFeeRate:    req.EmployeeFeeRate,
		CancellationReason: req.CancellationReason,
	}
	if req.MatchingStatus != nil {
		st, err := domain.ParseMatchingStatus(*req.MatchingStatus)
		if err != nil {
			failField(c, http.StatusBadRequest, ErrCodeValidation, err.Error(), "matching_status")
			return
		}
		in.Status = &st
	}

	m, err := h.matchSvc.Update(c.Request.Context(), middleware.OperatorID(c), id, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// CompleteMatching godoc
// @ID          completeMatching
// @Summary     Complete a matching
// @Description Moves an InProgress matching to Completed and accrues its fees onto both postings.
// @Tags        Matchings
// @Produce     json
//
// @Param       X-User-ID        header  string  false "Operator ID"         example(kim)
// @Param       Idempotency-Key  header  string  false "Makes retries safe"  example(3f7c2a9e-complete)
// @Param       id               path    int     true  "Matching ID"         example(1)
//
// @Success     200  {object} domain.Matching
// @Failure     404  {object} handlers.ErrorResponse "Matching not found"
// @Failure     409  {object} handlers.ErrorResponse "Concurrent update"
// @Failure     422  {object} handlers.ErrorResponse "Matching is not InProgress"
// @Router      /matchings/{id}/complete [post]
func (h *Handlers) CompleteMatching(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if h.replayMatching(c, http.StatusOK) {
		return
	}

	m, err := h.matchSvc.Complete(c.Request.Context(), middleware.OperatorID(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, m.ID, http.StatusOK)
	ok(c, http.StatusOK, m)
}

// CancelMatching godoc
// @ID          cancelMatching
// @Summary     Cancel a matching
// @Description Moves an InProgress matching to Cancelled. The body is optional.
// @Tags        Matchings
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "Operator ID"         example(kim)
// @Param       Idempotency-Key  header  string  false "Makes retries safe"  example(3f7c2a9e-cancel)
// @Param       id               path    int     true  "Matching ID"         example(1)
// @Param       body             body    handlers.CancelMatchingRequest  false  "Cancellation reason"
//
// @Success     200  {object} domain.Matching
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Matching not found"
// @Failure     422  {object} handlers.ErrorResponse "Matching is not InProgress"
// @Router      /matchings/{id}/cancel [post]
func (h *Handlers) CancelMatching(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if h.replayMatching(c, http.StatusOK) {
		return
	}

	var req CancelMatchingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	m, err := h.matchSvc.Cancel(c.Request.Context(), middleware.OperatorID(c), id, req.CancellationReason)
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, m.ID, http.StatusOK)
	ok(c, http.StatusOK, m)
}
