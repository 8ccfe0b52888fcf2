// Memo HTTP handlers.
//
// Memos attach to matchings and customers:
//   - POST|GET /matchings/{id}/memos
//   - POST|GET /customers/{id}/memos
//   - PUT|DELETE /memos/{memoId}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/http/middleware"
)

// MemoRequest is the JSON payload for creating or editing a memo.
type MemoRequest struct {
	Content string `json:"content" example:"Candidate prefers a start date in April."`
}

// ListMemosResponse wraps a page of memos and pagination information.
type ListMemosResponse struct {
	Memos      []domain.Memo `json:"memos"`
	Pagination Pagination    `json:"pagination"`
}

// AddMemo returns the create handler for memos on subjects of type st.
//
// @ID          addMatchingMemo
// @Summary     Attach a memo
// @Description Same contract for /customers/{id}/memos.
// @Tags        Memos
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "Operator ID"  example(kim)
// @Param       id         path    int     true  "Subject ID"   example(1)
// @Param       body       body    handlers.MemoRequest  true  "Memo content"
// @Success     201  {object} domain.Memo
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Subject not found"
// @Router      /matchings/{id}/memos [post]
func (h *Handlers) AddMemo(st domain.SubjectType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := pathID(c, "id")
		if !valid {
			return
		}
		var req MemoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
		m, err := h.memoSvc.Add(c.Request.Context(), domain.Subject{Type: st, ID: id}, middleware.OperatorID(c), req.Content)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusCreated, m)
	}
}

// ListMemos returns the list handler for memos on subjects of type st.
//
// @ID          listMatchingMemos
// @Summary     List memos (paginated, newest first)
// @Tags        Memos
// @Produce     json
// @Param       id         path   int  true  "Subject ID"     example(1)
// @Param       page       query  int  false "Page number"    minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page" minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListMemosResponse
// @Failure     404  {object} handlers.ErrorResponse "Subject not found"
// @Router      /matchings/{id}/memos [get]
func (h *Handlers) ListMemos(st domain.SubjectType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := pathID(c, "id")
		if !valid {
			return
		}
		page, pageSize := clampPagination(c)
		items, total, err := h.memoSvc.List(c.Request.Context(), domain.Subject{Type: st, ID: id}, page, pageSize)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusOK, ListMemosResponse{
			Memos:      items,
			Pagination: newPagination(page, pageSize, total),
		})
	}
}

// UpdateMemo godoc
// @ID          updateMemo
// @Summary     Edit a memo
// @Tags        Memos
// @Accept      json
// @Produce     json
// @Param       memoId  path  int  true  "Memo ID"  example(3)
// @Param       body    body  handlers.MemoRequest  true  "New content"
// @Success     200  {object} domain.Memo
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Memo not found"
// @Router      /memos/{memoId} [put]
func (h *Handlers) UpdateMemo(c *gin.Context) {
	id, valid := pathID(c, "memoId")
	if !valid {
		return
	}
	var req MemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	m, err := h.memoSvc.Update(c.Request.Context(), id, req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// DeleteMemo godoc
// @ID          deleteMemo
// @Summary     Delete a memo
// @Tags        Memos
// @Param       memoId  path  int  true  "Memo ID"  example(3)
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Memo not found"
// @Router      /memos/{memoId} [delete]
func (h *Handlers) DeleteMemo(c *gin.Context) {
	id, valid := pathID(c, "memoId")
	if !valid {
		return
	}
	if err := h.memoSvc.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
