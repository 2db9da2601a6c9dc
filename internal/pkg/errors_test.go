package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simp-lee/tourbase/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"nil", nil, 0},
		{"app_error_passthrough", domain.ErrForbidden, domain.CodeForbidden},
		{"wrapped_app_error", fmt.Errorf("loading user: %w", domain.ErrNotFound), domain.CodeNotFound},
		{"no_documents", mongo.ErrNoDocuments, domain.CodeNotFound},
		{"wrapped_no_documents", fmt.Errorf("find: %w", mongo.ErrNoDocuments), domain.CodeNotFound},
		{"duplicate_key", duplicateKeyError(), domain.CodeDuplicate},
		{"invalid_hex", primitive.ErrInvalidHex, domain.CodeValidation},
		{"token_expired", jwt.ErrTokenExpired, domain.CodeTokenExpired},
		{"token_malformed", jwt.ErrTokenMalformed, domain.CodeInvalidToken},
		{"token_bad_signature", jwt.ErrTokenSignatureInvalid, domain.CodeInvalidToken},
		// MarshalError is returned by value, not as a pointer.
		{"marshal_error", mongo.MarshalError{Value: "x", Err: errors.New("bad type")}, domain.CodeValidation},
		{"wrapped_marshal_error", fmt.Errorf("insert: %w", mongo.MarshalError{Value: "x", Err: errors.New("bad type")}), domain.CodeValidation},
		{"unknown", errors.New("disk on fire"), domain.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Errorf("Normalize(nil) = %v; want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Normalize returned nil for non-nil error")
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %d; want %d", got.Code, tt.wantCode)
			}
		})
	}
}

func TestNormalize_PreservesAppError(t *testing.T) {
	orig := domain.NewAppError(domain.CodeValidation, "rating must be between 1 and 5", nil)
	got := Normalize(orig)
	if got != orig {
		t.Errorf("Normalize rewrote a typed error: %v", got)
	}
}

func TestNormalize_UnknownMessage(t *testing.T) {
	got := Normalize(errors.New("dial tcp: connection refused"))
	if got.Message != "something went very wrong" {
		t.Errorf("Message = %q; want generic message", got.Message)
	}
	if domain.IsOperational(got) {
		t.Error("unknown errors must not be operational")
	}
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func newErrorContext(t *testing.T, path string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, path, nil)
	return c, w
}

func TestError_APIOperational(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, w := newErrorContext(t, "/api/v1/tours/missing")

	Error(c, domain.ErrNotFound)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != StatusFail {
		t.Errorf("Status = %q; want %q", resp.Status, StatusFail)
	}
	if resp.Message != "not found" {
		t.Errorf("Message = %q", resp.Message)
	}
	if !c.IsAborted() {
		t.Error("context should be aborted")
	}
}

func TestError_APIDebugIncludesDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, w := newErrorContext(t, "/api/v1/tours")

	Error(c, errors.New("cursor timeout"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want 500", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != StatusError {
		t.Errorf("Status = %q; want %q", resp.Status, StatusError)
	}
	if resp.Detail != "cursor timeout" {
		t.Errorf("Detail = %q; want raw cause in debug mode", resp.Detail)
	}
	if resp.Stack == "" {
		t.Error("Stack should be populated in debug mode")
	}
}

func TestError_APIReleaseHidesInternals(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)
	c, w := newErrorContext(t, "/api/v1/tours")

	Error(c, errors.New("cursor timeout"))

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Message != "something went very wrong" {
		t.Errorf("Message = %q; internals leaked in release mode", resp.Message)
	}
	if resp.Detail != "" || resp.Stack != "" {
		t.Errorf("Detail/Stack populated in release mode: %q / %q", resp.Detail, resp.Stack)
	}
}

func TestError_APIReleaseKeepsOperationalMessage(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)
	c, w := newErrorContext(t, "/api/v1/users/login")

	Error(c, domain.NewAppError(domain.CodeNotAuthenticated, "incorrect email or password", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Message != "incorrect email or password" {
		t.Errorf("Message = %q; operational messages must survive release mode", resp.Message)
	}
}

func TestError_PageRendersTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	engine.SetHTMLTemplate(template.Must(template.New("errors/error.html").Parse(
		`<h1>{{ .Title }}</h1><p>{{ .Message }}</p>`)))
	c.Request = httptest.NewRequest(http.MethodGet, "/tour/the-forest-hiker", nil)

	Error(c, domain.NewAppError(domain.CodeNotFound, "there is no tour with that name", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Something went wrong!") {
		t.Errorf("body missing title: %q", body)
	}
	if !strings.Contains(body, "there is no tour with that name") {
		t.Errorf("body missing message: %q", body)
	}
}

func TestError_PageFallsBackWithoutRenderer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, w := newErrorContext(t, "/tour/the-forest-hiker")

	Error(c, domain.ErrNotFound)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), http.StatusText(http.StatusNotFound)) {
		t.Errorf("body = %q; want plain-text fallback", w.Body.String())
	}
}

func TestStatusWord(t *testing.T) {
	if got := statusWord(http.StatusBadRequest); got != StatusFail {
		t.Errorf("statusWord(400) = %q; want %q", got, StatusFail)
	}
	if got := statusWord(http.StatusNotFound); got != StatusFail {
		t.Errorf("statusWord(404) = %q; want %q", got, StatusFail)
	}
	if got := statusWord(http.StatusInternalServerError); got != StatusError {
		t.Errorf("statusWord(500) = %q; want %q", got, StatusError)
	}
}
