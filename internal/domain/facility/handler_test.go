package facility

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(newTestService())
	e := echo.New()
	return h, e
}

func TestHandler_CreateDepartment(t *testing.T) {
	h, e := newTestHandler()
	body := `{"name":"Cardiology"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/departments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateDepartment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_CreateDepartment_MissingName(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/departments", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateDepartment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_CreateWard(t *testing.T) {
	h, e := newTestHandler()
	d := &Department{Name: "Critical Care"}
	if err := h.svc.CreateDepartment(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := `{"department_id":"` + d.ID.String() + `","name":"ICU","floor":2,"type":"ICU","base_price_per_day":"5000.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wards", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateWard(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var w Ward
	if err := json.Unmarshal(rec.Body.Bytes(), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !w.BasePricePerDay.Equal(decimal.RequireFromString("5000.00")) {
		t.Errorf("unexpected price: %s", w.BasePricePerDay)
	}
}

func TestHandler_CreateWard_BadPrice(t *testing.T) {
	h, e := newTestHandler()
	body := `{"department_id":"` + uuid.New().String() + `","name":"ICU","type":"ICU","base_price_per_day":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wards", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateWard(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_AddBeds(t *testing.T) {
	h, e := newTestHandler()
	w := seedWard(t, h.svc, "ICU", "ICU", "5000.00")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":2}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(w.ID.String())

	if err := h.AddBeds(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var beds []*Bed
	if err := json.Unmarshal(rec.Body.Bytes(), &beds); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(beds) != 2 {
		t.Errorf("expected 2 beds, got %d", len(beds))
	}
}

func TestHandler_AddBeds_UnknownWard(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.AddBeds(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_SetBedStatus(t *testing.T) {
	h, e := newTestHandler()
	w := seedWard(t, h.svc, "ICU", "ICU", "5000.00")
	beds, err := h.svc.AddBeds(context.Background(), w.ID, 1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"Maintenance"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(beds[0].ID.String())

	if err := h.SetBedStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetLayout(t *testing.T) {
	h, e := newTestHandler()
	w := seedWard(t, h.svc, "ICU", "ICU", "5000.00")
	if _, err := h.svc.AddBeds(context.Background(), w.ID, 2, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/facility/layout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetLayout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
