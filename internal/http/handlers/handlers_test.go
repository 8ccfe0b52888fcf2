package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/http/middleware"
	"github.com/tbourn/go-agency-backoffice/internal/services"
)

// ---------- stubs ----------

type stubMatchings struct {
	create   func(context.Context, string, services.CreateMatchingInput) (*domain.Matching, error)
	get      func(context.Context, int64) (*domain.Matching, error)
	listPage func(context.Context, *domain.MatchingStatus, int, int) ([]domain.Matching, int64, error)
	update   func(context.Context, string, int64, services.UpdateMatchingInput) (*domain.Matching, error)
	complete func(context.Context, string, int64) (*domain.Matching, error)
	cancel   func(context.Context, string, int64, *string) (*domain.Matching, error)
}

func (s *stubMatchings) Create(ctx context.Context, u string, in services.CreateMatchingInput) (*domain.Matching, error) {
	if s.create != nil {
		return s.create(ctx, u, in)
	}
	return &domain.Matching{ID: 1, Status: domain.MatchingInProgress}, nil
}

func (s *stubMatchings) Get(ctx context.Context, id int64) (*domain.Matching, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.Matching{ID: id, Status: domain.MatchingInProgress}, nil
}

func (s *stubMatchings) ListPage(ctx context.Context, st *domain.MatchingStatus, p, ps int) ([]domain.Matching, int64, error) {
	if s.listPage != nil {
		return s.listPage(ctx, st, p, ps)
	}
	return []domain.Matching{}, 0, nil
}

func (s *stubMatchings) Update(ctx context.Context, u string, id int64, in services.UpdateMatchingInput) (*domain.Matching, error) {
	if s.update != nil {
		return s.update(ctx, u, id, in)
	}
	return &domain.Matching{ID: id, Status: domain.MatchingInProgress}, nil
}

func (s *stubMatchings) Complete(ctx context.Context, u string, id int64) (*domain.Matching, error) {
	if s.complete != nil {
		return s.complete(ctx, u, id)
	}
	return &domain.Matching{ID: id, Status: domain.MatchingCompleted}, nil
}

func (s *stubMatchings) Cancel(ctx context.Context, u string, id int64, reason *string) (*domain.Matching, error) {
	if s.cancel != nil {
		return s.cancel(ctx, u, id, reason)
	}
	return &domain.Matching{ID: id, Status: domain.MatchingCancelled, CancellationReason: reason}, nil
}

type stubSettlements struct {
	apply func(context.Context, string, domain.PostingKind, int64, services.SettlementInput) (domain.SettleablePosting, error)
	stats func(context.Context) (*services.SettlementStats, error)
}

func (s *stubSettlements) Apply(ctx context.Context, u string, k domain.PostingKind, id int64, in services.SettlementInput) (domain.SettleablePosting, error) {
	if s.apply != nil {
		return s.apply(ctx, u, k, id, in)
	}
	return &domain.JobPosting{ID: id}, nil
}

func (s *stubSettlements) Stats(ctx context.Context) (*services.SettlementStats, error) {
	if s.stats != nil {
		return s.stats(ctx)
	}
	return &services.SettlementStats{}, nil
}

type stubDashboard struct {
	stats *services.DashboardStats
	err   error
}

func (s stubDashboard) Stats(context.Context) (*services.DashboardStats, error) { return s.stats, s.err }

type stubMemos struct {
	added   []domain.Subject
	authors []string
	err     error
}

func (s *stubMemos) Add(_ context.Context, sub domain.Subject, author, content string) (*domain.Memo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.added = append(s.added, sub)
	s.authors = append(s.authors, author)
	return &domain.Memo{ID: 3, SubjectType: sub.Type, SubjectID: sub.ID, Content: content, CreatedBy: author}, nil
}

func (s *stubMemos) List(_ context.Context, sub domain.Subject, _, _ int) ([]domain.Memo, int64, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return []domain.Memo{{ID: 1, SubjectType: sub.Type, SubjectID: sub.ID, Content: "a"}}, 1, nil
}

func (s *stubMemos) Update(_ context.Context, id int64, content string) (*domain.Memo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Memo{ID: id, Content: content}, nil
}

func (s *stubMemos) Delete(context.Context, int64) error { return s.err }

type savedKey struct {
	operator, scope, key string
	id                   int64
	status               int
}

type stubIdem struct {
	saved []savedKey
}

func (s *stubIdem) Save(_ context.Context, operator, scope, key string, id int64, status int) error {
	s.saved = append(s.saved, savedKey{operator, scope, key, id, status})
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

// ---------- router helper ----------

func newTestRouter(h *Handlers, lookup middleware.IdempotencyLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup))
	r.GET("/health", h.Health)
	r.POST("/matchings", h.CreateMatching)
	r.GET("/matchings", h.ListMatchings)
	r.GET("/matchings/:id", h.GetMatching)
	r.PUT("/matchings/:id", h.UpdateMatching)
	r.POST("/matchings/:id/complete", h.CompleteMatching)
	r.POST("/matchings/:id/cancel", h.CancelMatching)
	r.GET("/matchings/:id/memos", h.ListMemos(domain.SubjectMatching))
	r.POST("/matchings/:id/memos", h.AddMemo(domain.SubjectMatching))
	r.POST("/customers/:id/memos", h.AddMemo(domain.SubjectCustomer))
	r.PUT("/memos/:memoId", h.UpdateMemo)
	r.DELETE("/memos/:memoId", h.DeleteMemo)
	r.PUT("/job-postings/:id/settlement", h.UpdateSettlement(domain.KindJobPosting))
	r.PUT("/job-seekings/:id/settlement", h.UpdateSettlement(domain.KindJobSeeking))
	r.GET("/settlements/stats", h.SettlementStats)
	r.GET("/dashboard/stats", h.DashboardStats)
	r.GET("/fees/preview", h.FeePreview)
	return r
}

func do(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return m
}

// ---------- matchings ----------

func TestCreateMatching_DecodesMoneyAndOperator(t *testing.T) {
	var got services.CreateMatchingInput
	var op string
	ms := &stubMatchings{create: func(_ context.Context, u string, in services.CreateMatchingInput) (*domain.Matching, error) {
		got, op = in, u
		er, ee := decimal.NewFromInt(400000), decimal.NewFromInt(320000)
		return &domain.Matching{
			ID: 1, JobPostingID: in.JobPostingID, JobSeekingPostingID: in.JobSeekingPostingID,
			AgreedSalary: in.AgreedSalary, Status: domain.MatchingInProgress,
			EmployerFeeAmount: &er, EmployeeFeeAmount: &ee,
		}, nil
	}}
	r := newTestRouter(New(Deps{Matchings: ms}), nil)

	body := `{"job_posting_id":7,"job_seeking_posting_id":12,"agreed_salary":"4000000","employer_fee_rate":10,"employee_fee_rate":"8","mark_postings_in_progress":true}`
	w := do(r, http.MethodPost, "/matchings", body, map[string]string{middleware.OperatorHeader: "kim"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if op != "kim" || got.JobPostingID != 7 || got.JobSeekingPostingID != 12 {
		t.Fatalf("unexpected input %+v by %q", got, op)
	}
	if !got.AgreedSalary.Equal(decimal.NewFromInt(4000000)) || !got.EmployerFeeRate.Equal(decimal.NewFromInt(10)) || !got.EmployeeFeeRate.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("money not decoded: %+v", got)
	}
	if got.MarkPostingsInProgress == nil || !*got.MarkPostingsInProgress {
		t.Fatalf("flag not forwarded")
	}
	if w.Header().Get("Location") != "/matchings/1" {
		t.Fatalf("Location = %q", w.Header().Get("Location"))
	}
	m := decodeMap(t, w)
	if m["matching_status"] != "InProgress" || m["employer_fee_amount"] != "400000" || m["employee_fee_amount"] != "320000" {
		t.Fatalf("unexpected body %v", m)
	}
}

func TestCreateMatching_ErrorsMapToEnvelope(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&services.ValidationError{Field: "employer_fee_rate", Msg: "fee rate must be between 0 and 100"}, http.StatusBadRequest, ErrCodeValidation},
		{services.ErrPostingNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrPostingBound, http.StatusConflict, ErrCodeConflict},
	}
	for _, tc := range cases {
		ms := &stubMatchings{create: func(context.Context, string, services.CreateMatchingInput) (*domain.Matching, error) {
			return nil, tc.err
		}}
		r := newTestRouter(New(Deps{Matchings: ms}), nil)
		w := do(r, http.MethodPost, "/matchings", `{"job_posting_id":1,"job_seeking_posting_id":2,"agreed_salary":1}`, nil)
		if w.Code != tc.status || decodeMap(t, w)["code"] != tc.code {
			t.Fatalf("%v: %d %s", tc.err, w.Code, w.Body.String())
		}
	}

	r := newTestRouter(New(Deps{Matchings: &stubMatchings{}}), nil)
	if w := do(r, http.MethodPost, "/matchings", `{"agreed_salary":"abc"}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed decimal should be 400, got %d", w.Code)
	}
}

func TestCreateMatching_IdempotentReplay(t *testing.T) {
	creates := 0
	ms := &stubMatchings{
		create: func(context.Context, string, services.CreateMatchingInput) (*domain.Matching, error) {
			creates++
			return &domain.Matching{ID: 55, Status: domain.MatchingInProgress}, nil
		},
		get: func(_ context.Context, id int64) (*domain.Matching, error) {
			return &domain.Matching{ID: id, Status: domain.MatchingCompleted}, nil
		},
	}
	store := &stubIdem{}
	lookup := func(_ context.Context, operator, scope, key string, _ time.Time) (int64, bool, error) {
		for _, s := range store.saved {
			if s.operator == operator && s.scope == scope && s.key == key {
				return s.id, true, nil
			}
		}
		return 0, false, nil
	}
	r := newTestRouter(New(Deps{Matchings: ms, Idempotency: store}), lookup)
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "create-1", middleware.OperatorHeader: "kim"}
	body := `{"job_posting_id":7,"job_seeking_posting_id":12,"agreed_salary":"4000000"}`

	if w := do(r, http.MethodPost, "/matchings", body, hdr); w.Code != http.StatusCreated {
		t.Fatalf("first: %d", w.Code)
	}
	if len(store.saved) != 1 || store.saved[0].scope != "POST /matchings" || store.saved[0].id != 55 || store.saved[0].status != http.StatusCreated {
		t.Fatalf("saved = %+v", store.saved)
	}

	w := do(r, http.MethodPost, "/matchings", body, hdr)
	if w.Code != http.StatusCreated || w.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay: %d %v", w.Code, w.Header())
	}
	if creates != 1 {
		t.Fatalf("create ran %d times", creates)
	}
	if m := decodeMap(t, w); m["matching_status"] != "Completed" {
		t.Fatalf("replay should return current state, got %v", m)
	}
}

func TestListMatchings_StatusFilterAndPagination(t *testing.T) {
	var gotStatus *domain.MatchingStatus
	var gotPage, gotSize int
	ms := &stubMatchings{listPage: func(_ context.Context, st *domain.MatchingStatus, p, ps int) ([]domain.Matching, int64, error) {
		gotStatus, gotPage, gotSize = st, p, ps
		return []domain.Matching{{ID: 9, Status: domain.MatchingCompleted}, {ID: 8, Status: domain.MatchingCompleted}}, 12, nil
	}}
	r := newTestRouter(New(Deps{Matchings: ms}), nil)

	w := do(r, http.MethodGet, "/matchings?status=Completed&page=2&page_size=5", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if gotStatus == nil || *gotStatus != domain.MatchingCompleted || gotPage != 2 || gotSize != 5 {
		t.Fatalf("forwarded %v %d %d", gotStatus, gotPage, gotSize)
	}
	var resp ListMatchingsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body.String())
	}
	if len(resp.Matchings) != 2 || resp.Pagination.TotalPages != 3 || !resp.Pagination.HasNext {
		t.Fatalf("unexpected %+v", resp)
	}

	if w := do(r, http.MethodGet, "/matchings?status=Archived", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status should be 400, got %d", w.Code)
	}
}

func TestGetMatching_BadIDAndNotFound(t *testing.T) {
	ms := &stubMatchings{get: func(context.Context, int64) (*domain.Matching, error) {
		return nil, services.ErrMatchingNotFound
	}}
	r := newTestRouter(New(Deps{Matchings: ms}), nil)

	for _, p := range []string{"/matchings/abc", "/matchings/0", "/matchings/-3"} {
		if w := do(r, http.MethodGet, p, "", nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: %d", p, w.Code)
		}
	}
	if w := do(r, http.MethodGet, "/matchings/77", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing: %d", w.Code)
	}
}

func TestUpdateMatching_ParsesStatus(t *testing.T) {
	var got services.UpdateMatchingInput
	ms := &stubMatchings{update: func(_ context.Context, _ string, _ int64, in services.UpdateMatchingInput) (*domain.Matching, error) {
		got = in
		return &domain.Matching{ID: 1, Status: *in.Status}, nil
	}}
	r := newTestRouter(New(Deps{Matchings: ms}), nil)

	w := do(r, http.MethodPut, "/matchings/1", `{"matching_status":"Cancelled","cancellation_reason":"withdrew","agreed_salary":4200000}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if got.Status == nil || *got.Status != domain.MatchingCancelled || *got.CancellationReason != "withdrew" || !got.AgreedSalary.Equal(decimal.NewFromInt(4200000)) {
		t.Fatalf("unexpected input %+v", got)
	}

	w = do(r, http.MethodPut, "/matchings/1", `{"matching_status":"Archived"}`, nil)
	if w.Code != http.StatusBadRequest || decodeMap(t, w)["field"] != "matching_status" {
		t.Fatalf("bad status: %d %s", w.Code, w.Body.String())
	}
}

func TestCompleteAndCancel(t *testing.T) {
	var reason *string
	ms := &stubMatchings{
		complete: func(context.Context, string, int64) (*domain.Matching, error) {
			return nil, &services.TransitionError{Entity: "matching", From: "Cancelled", To: "Completed"}
		},
		cancel: func(_ context.Context, _ string, id int64, r *string) (*domain.Matching, error) {
			reason = r
			return &domain.Matching{ID: id, Status: domain.MatchingCancelled}, nil
		},
	}
	r := newTestRouter(New(Deps{Matchings: ms}), nil)

	w := do(r, http.MethodPost, "/matchings/4/complete", "", nil)
	if w.Code != http.StatusUnprocessableEntity || decodeMap(t, w)["code"] != ErrCodeInvalidTransition {
		t.Fatalf("complete: %d %s", w.Code, w.Body.String())
	}

	if w := do(r, http.MethodPost, "/matchings/4/cancel", "", nil); w.Code != http.StatusOK || reason != nil {
		t.Fatalf("cancel without body: %d reason=%v", w.Code, reason)
	}
	if w := do(r, http.MethodPost, "/matchings/4/cancel", `{"cancellation_reason":"고객 요청"}`, nil); w.Code != http.StatusOK || reason == nil || *reason != "고객 요청" {
		t.Fatalf("cancel with reason: %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/matchings/4/cancel", `{"cancellation_reason":`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: %d", w.Code)
	}
}

// ---------- settlements ----------

func TestUpdateSettlement_DispatchesByKind(t *testing.T) {
	type call struct {
		kind domain.PostingKind
		id   int64
		in   services.SettlementInput
	}
	var calls []call
	ss := &stubSettlements{apply: func(_ context.Context, _ string, k domain.PostingKind, id int64, in services.SettlementInput) (domain.SettleablePosting, error) {
		calls = append(calls, call{k, id, in})
		if k == domain.KindJobSeeking {
			return nil, &services.TransitionError{Entity: string(k), From: "unsettled", To: "unsettled"}
		}
		amt := decimal.NewFromInt(400000)
		p := &domain.JobPosting{ID: id}
		p.SettlementStatus = domain.SettlementSettled
		p.SettlementAmount = &amt
		return p, nil
	}}
	r := newTestRouter(New(Deps{Settlements: ss}), nil)

	w := do(r, http.MethodPut, "/job-postings/7/settlement", `{"settlement_status":"SETTLED","settlement_memo":"wire"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("settle: %d %s", w.Code, w.Body.String())
	}
	m := decodeMap(t, w)
	if m["settlement_status"] != "settled" || m["settlement_amount"] != "400000" {
		t.Fatalf("body %v", m)
	}
	if calls[0].kind != domain.KindJobPosting || calls[0].id != 7 || *calls[0].in.Status != domain.SettlementSettled || calls[0].in.Amount != nil || *calls[0].in.Memo != "wire" {
		t.Fatalf("call %+v", calls[0])
	}

	w = do(r, http.MethodPut, "/job-seekings/12/settlement", `{"settlement_status":"unsettled"}`, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unsettle unsettled: %d", w.Code)
	}
	if calls[1].kind != domain.KindJobSeeking {
		t.Fatalf("kind not forwarded: %+v", calls[1])
	}

	w = do(r, http.MethodPut, "/job-postings/7/settlement", `{"settlement_status":"paid"}`, nil)
	if w.Code != http.StatusBadRequest || decodeMap(t, w)["field"] != "settlement_status" {
		t.Fatalf("bad status: %d %s", w.Code, w.Body.String())
	}
	if len(calls) != 2 {
		t.Fatalf("invalid status must not reach the service")
	}
}

func TestSettlementAndDashboardStats(t *testing.T) {
	ss := &stubSettlements{stats: func(context.Context) (*services.SettlementStats, error) {
		return &services.SettlementStats{SettledCount: 1, SettledAmountSum: decimal.NewFromInt(400000)}, nil
	}}
	ds := stubDashboard{stats: &services.DashboardStats{ActiveMatches: 1, TotalRevenue: decimal.NewFromInt(450000)}}
	r := newTestRouter(New(Deps{Settlements: ss, Dashboard: ds}), nil)

	w := do(r, http.MethodGet, "/settlements/stats", "", nil)
	if m := decodeMap(t, w); w.Code != http.StatusOK || m["settled_amount_sum"] != "400000" || m["settled_count"].(float64) != 1 {
		t.Fatalf("settlement stats: %d %v", w.Code, m)
	}
	w = do(r, http.MethodGet, "/dashboard/stats", "", nil)
	if m := decodeMap(t, w); w.Code != http.StatusOK || m["total_revenue"] != "450000" || m["active_matches"].(float64) != 1 {
		t.Fatalf("dashboard: %d %v", w.Code, m)
	}

	r = newTestRouter(New(Deps{Dashboard: stubDashboard{err: errors.New("db gone")}}), nil)
	if w := do(r, http.MethodGet, "/dashboard/stats", "", nil); w.Code != http.StatusInternalServerError {
		t.Fatalf("dashboard error: %d", w.Code)
	}
}

// ---------- fees, memos, health ----------

func TestFeePreview(t *testing.T) {
	r := newTestRouter(New(Deps{}), nil)

	w := do(r, http.MethodGet, "/fees/preview?amount=4000000&employer_rate=10&employee_rate=8", "", nil)
	m := decodeMap(t, w)
	if w.Code != http.StatusOK || m["employer_fee_amount"] != "400000" || m["employee_fee_amount"] != "320000" || m["total_fee_amount"] != "720000" {
		t.Fatalf("preview: %d %v", w.Code, m)
	}

	for _, q := range []string{"", "?amount=x", "?amount=100&employer_rate=101", "?amount=-1"} {
		if w := do(r, http.MethodGet, "/fees/preview"+q, "", nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%q: %d", q, w.Code)
		}
	}
}

func TestMemoRoutes(t *testing.T) {
	memos := &stubMemos{}
	r := newTestRouter(New(Deps{Memos: memos}), nil)

	w := do(r, http.MethodPost, "/customers/3/memos", `{"content":"VIP"}`, map[string]string{middleware.OperatorHeader: "lee"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add: %d", w.Code)
	}
	if memos.added[0] != (domain.Subject{Type: domain.SubjectCustomer, ID: 3}) || memos.authors[0] != "lee" {
		t.Fatalf("subject %+v by %v", memos.added, memos.authors)
	}
	if w := do(r, http.MethodPost, "/matchings/5/memos", `{"content":"call back"}`, nil); w.Code != http.StatusCreated || memos.added[1].Type != domain.SubjectMatching {
		t.Fatalf("matching memo: %d", w.Code)
	}

	w = do(r, http.MethodGet, "/matchings/5/memos", "", nil)
	var list ListMemosResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body.String())
	}
	if w.Code != http.StatusOK || len(list.Memos) != 1 || list.Pagination.Total != 1 {
		t.Fatalf("list: %d %+v", w.Code, list)
	}

	if w := do(r, http.MethodPut, "/memos/3", `{"content":"edited"}`, nil); w.Code != http.StatusOK {
		t.Fatalf("update: %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/memos/3", "", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}

	memos.err = services.ErrMemoNotFound
	if w := do(r, http.MethodDelete, "/memos/3", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("delete missing: %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(New(Deps{Health: stubPinger{}}), nil)
	if w := do(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK || decodeMap(t, w)["db"] != "up" {
		t.Fatalf("healthy: %d", w.Code)
	}
	r = newTestRouter(New(Deps{Health: stubPinger{err: errors.New("down")}}), nil)
	if w := do(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy: %d", w.Code)
	}
}
