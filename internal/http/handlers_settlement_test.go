package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"splitbook/internal/core"
	"splitbook/internal/reports"
	"splitbook/internal/services"
	"splitbook/internal/storage"
)

type stubService struct {
	settlements map[int64]*core.Settlement
	nextID      int64
	createErr   error
}

func newStubService() *stubService {
	return &stubService{settlements: make(map[int64]*core.Settlement), nextID: 1}
}

func (s *stubService) CreateSettlement(ctx context.Context, settlement *core.Settlement) error {
	if s.createErr != nil {
		return s.createErr
	}
	settlement.ID = s.nextID
	settlement.NetIncome = settlement.GrossIncome.Sub(settlement.PaypalFees)
	s.settlements[s.nextID] = settlement
	s.nextID++
	return nil
}

func (s *stubService) UpdateSettlement(ctx context.Context, id int64, settlement *core.Settlement) error {
	if _, ok := s.settlements[id]; !ok {
		return storage.ErrNotFound
	}
	settlement.ID = id
	s.settlements[id] = settlement
	return nil
}

func (s *stubService) GetSettlement(ctx context.Context, id int64) (*core.Settlement, error) {
	settlement, ok := s.settlements[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return settlement, nil
}

func (s *stubService) ListSettlements(ctx context.Context) ([]core.Settlement, error) {
	var out []core.Settlement
	for _, settlement := range s.settlements {
		out = append(out, *settlement)
	}
	return out, nil
}

func (s *stubService) DeleteSettlement(ctx context.Context, id int64) error {
	if _, ok := s.settlements[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.settlements, id)
	return nil
}

func newTestServer(t *testing.T, svc SettlementService, gen reports.Generator) *Server {
	t.Helper()
	s := NewServer(":0", svc, gen)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

const validBody = `{
	"weekStartDate": "2026-01-26",
	"weekEndDate": "2026-02-01",
	"grossIncome": "1000.00",
	"paypalFees": "10.00",
	"expenses": [
		{"description": "Server hosting", "amount": "50.00"},
		{"description": "Domain renewal", "amount": "20.00"}
	]
}`

func TestCreateSettlement_Created(t *testing.T) {
	svc := newStubService()
	s := newTestServer(t, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/settlements", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp settlementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 1 {
		t.Errorf("id = %d, want 1", resp.ID)
	}
	if resp.GrossIncome != "1000.00" {
		t.Errorf("grossIncome = %q", resp.GrossIncome)
	}
	if len(resp.Expenses) != 2 {
		t.Errorf("expenses = %d, want 2", len(resp.Expenses))
	}
}

func TestCreateSettlement_ParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "bad week end date",
			body:      `{"weekStartDate":"2026-01-26","weekEndDate":"tomorrow","grossIncome":"10.00"}`,
			wantField: "weekEndDate",
		},
		{
			name:      "malformed gross income",
			body:      `{"weekStartDate":"2026-01-26","weekEndDate":"2026-02-01","grossIncome":"ten"}`,
			wantField: "grossIncome",
		},
		{
			name:      "malformed expense amount",
			body:      `{"weekStartDate":"2026-01-26","weekEndDate":"2026-02-01","grossIncome":"10.00","expenses":[{"description":"x","amount":"1.2.3"}]}`,
			wantField: "expenses[0].amount",
		},
		{
			name:      "not json",
			body:      `week=this`,
			wantField: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, newStubService(), nil)

			req := httptest.NewRequest(http.MethodPost, "/api/settlements", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Server.Handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Field != tt.wantField {
				t.Errorf("field = %q, want %q", resp.Field, tt.wantField)
			}
		})
	}
}

func TestCreateSettlement_ValidationErrorFromService(t *testing.T) {
	svc := newStubService()
	svc.createErr = &services.ValidationError{Field: "weekEndDate", Err: core.ErrInvalidPeriod}
	s := newTestServer(t, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/settlements", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetSettlement_NotFound(t *testing.T) {
	s := newTestServer(t, newStubService(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/settlements/99", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetSettlement_BadID(t *testing.T) {
	s := newTestServer(t, newStubService(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/settlements/abc", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUpdateSettlement(t *testing.T) {
	svc := newStubService()
	s := newTestServer(t, svc, nil)

	create := httptest.NewRequest(http.MethodPost, "/api/settlements", strings.NewReader(validBody))
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, create)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	update := httptest.NewRequest(http.MethodPut, "/api/settlements/1",
		strings.NewReader(`{"weekStartDate":"2026-01-26","weekEndDate":"2026-02-01","grossIncome":"1200.00"}`))
	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, update)

	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.settlements[1].GrossIncome.Cents != 120000 {
		t.Errorf("gross income = %d, want 120000", svc.settlements[1].GrossIncome.Cents)
	}
}

func TestDeleteSettlement(t *testing.T) {
	svc := newStubService()
	s := newTestServer(t, svc, nil)

	create := httptest.NewRequest(http.MethodPost, "/api/settlements", strings.NewReader(validBody))
	s.Server.Handler.ServeHTTP(httptest.NewRecorder(), create)

	del := httptest.NewRequest(http.MethodDelete, "/api/settlements/1", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, del)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}

	del = httptest.NewRequest(http.MethodDelete, "/api/settlements/1", nil)
	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, del)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestListSettlements_UsesCacheUntilInvalidated(t *testing.T) {
	svc := newStubService()
	s := newTestServer(t, svc, nil)

	create := httptest.NewRequest(http.MethodPost, "/api/settlements", strings.NewReader(validBody))
	s.Server.Handler.ServeHTTP(httptest.NewRecorder(), create)

	list := httptest.NewRequest(http.MethodGet, "/api/settlements", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, list)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var listResp []settlementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp) != 1 {
		t.Fatalf("list = %d items, want 1", len(listResp))
	}

	// Second create invalidates the cached list.
	create = httptest.NewRequest(http.MethodPost, "/api/settlements", strings.NewReader(validBody))
	s.Server.Handler.ServeHTTP(httptest.NewRecorder(), create)

	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settlements", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp) != 2 {
		t.Fatalf("list after second create = %d items, want 2", len(listResp))
	}
}

func TestExportSettlement_Unconfigured(t *testing.T) {
	svc := newStubService()
	s := newTestServer(t, svc, nil)

	create := httptest.NewRequest(http.MethodPost, "/api/settlements", strings.NewReader(validBody))
	s.Server.Handler.ServeHTTP(httptest.NewRecorder(), create)

	req := httptest.NewRequest(http.MethodGet, "/api/settlements/1/export", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestExportSettlement_CSV(t *testing.T) {
	svc := newStubService()
	s := newTestServer(t, svc, reports.NewCSVGenerator())

	create := httptest.NewRequest(http.MethodPost, "/api/settlements", strings.NewReader(validBody))
	s.Server.Handler.ServeHTTP(httptest.NewRecorder(), create)

	req := httptest.NewRequest(http.MethodGet, "/api/settlements/1/export", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Errorf("content type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "settlement-2026-02-01.csv") {
		t.Errorf("content disposition = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "Server hosting") {
		t.Errorf("csv body missing expense line:\n%s", rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, newStubService(), nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/settlements/1", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, newStubService(), nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}
