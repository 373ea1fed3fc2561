package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
)

type samplePayload struct {
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"ada@example.com","quantity":3}`))

	var payload samplePayload
	if err := DecodeJSONBody(req, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Email != "ada@example.com" || payload.Quantity != 3 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"ada@example.com","quantity":3,"extra":true}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	if err == nil {
		t.Fatal("expected error for malformed json")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldsByJSONTag(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"quantity":0}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details type %T", typed.Details())
	}
	if details["email"] != "is required" {
		t.Fatalf("expected email detail keyed by json tag, got %+v", details)
	}
	if details["quantity"] != "must be greater than 0" {
		t.Fatalf("expected quantity detail, got %+v", details)
	}
}
