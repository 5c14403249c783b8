package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("bed %s absent", "ICU-1"), KindNotFound},
		{"conflict", Conflict("bed is Occupied"), KindConflict},
		{"validation", Validation("ward_id is required"), KindValidation},
		{"plain error", errors.New("boom"), KindInternal},
		{"wrapped", fmt.Errorf("outer: %w", Conflict("inner")), KindConflict},
		{"nil inner wrap", Wrap(KindNotFound, errors.New("no rows"), "admission not found"), KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Conflict("x"), http.StatusConflict},
		{Validation("x"), http.StatusBadRequest},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := Conflict("bed %s is %s", "ICU-2", "Occupied")
	if err.Error() != "bed ICU-2 is Occupied" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	wrapped := Wrap(KindInternal, errors.New("pq: timeout"), "aggregate bill")
	if wrapped.Error() != "aggregate bill: pq: timeout" {
		t.Errorf("unexpected wrapped message: %s", wrapped.Error())
	}
	if !errors.Is(wrapped, errors.Unwrap(wrapped)) {
		t.Error("expected unwrap to reach the inner error")
	}
}

func TestToHTTP_MasksInternal(t *testing.T) {
	he := ToHTTP(errors.New("pq: connection refused"))
	if he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", he.Code)
	}
	body, ok := he.Message.(map[string]string)
	if !ok {
		t.Fatalf("unexpected message type %T", he.Message)
	}
	if body["message"] != "internal server error" {
		t.Errorf("internal detail leaked: %s", body["message"])
	}
}

func TestToHTTP_KeepsKind(t *testing.T) {
	he := ToHTTP(NotFound("patient not found"))
	body := he.Message.(map[string]string)
	if body["kind"] != "not_found" {
		t.Errorf("expected kind not_found, got %s", body["kind"])
	}
	if body["message"] != "patient not found" {
		t.Errorf("unexpected message: %s", body["message"])
	}
}
