package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewCarriesDefaultMessage(t *testing.T) {
	err := New(JudgeQueueFull)
	if err.Code != JudgeQueueFull {
		t.Errorf("code = %d", err.Code)
	}
	if err.Error() == "" {
		t.Error("expected a default message")
	}
}

func TestWrapPreservesUnderlying(t *testing.T) {
	base := fmt.Errorf("dial tcp: connection refused")
	err := Wrap(base, CacheError)
	if !stderrors.Is(err, base) {
		t.Error("wrapped error lost its cause")
	}
	if GetCode(err) != CacheError {
		t.Errorf("code = %d", GetCode(err))
	}
}

func TestGetErrorWrapsForeignErrors(t *testing.T) {
	err := GetError(fmt.Errorf("boom"))
	if err.Code != InternalServerError {
		t.Errorf("code = %d", err.Code)
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := New(SubmissionNotFound)
	if !Is(err, SubmissionNotFound) {
		t.Error("Is should match the code")
	}
	if Is(err, CacheError) {
		t.Error("Is matched the wrong code")
	}
	if Is(nil, CacheError) {
		t.Error("Is matched nil")
	}
}

func TestValidationErrorDetails(t *testing.T) {
	err := ValidationError("source_code", "required")
	if err.Details["field"] != "source_code" {
		t.Errorf("details = %v", err.Details)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{Success, http.StatusOK},
		{InvalidParams, http.StatusBadRequest},
		{SubmissionNotFound, http.StatusNotFound},
		{JudgeQueueFull, http.StatusTooManyRequests},
		{InternalServerError, http.StatusInternalServerError},
		{LanguageNotSupported, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%d) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
