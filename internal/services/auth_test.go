package services

import (
	"context"
	"errors"
	"testing"
	"time"

	nberrors "github.com/yungbote/ottolearn-tutor/internal/pkg/errors"
	"github.com/yungbote/ottolearn-tutor/internal/platform/ctxutil"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	as, err := NewAuthService(testLogger(), "secret", "ottolearn")
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	tok, err := as.IssueToken("user-42", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	ctx, err := as.SetContextFromToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if ctxutil.UserID(ctx) != "user-42" {
		t.Fatalf("user id: %q", ctxutil.UserID(ctx))
	}
}

func TestAuthServiceRejects(t *testing.T) {
	as, _ := NewAuthService(testLogger(), "secret", "")
	other, _ := NewAuthService(testLogger(), "other-secret", "")
	foreign, _ := other.IssueToken("u", time.Minute)
	expired, _ := as.IssueToken("u", -time.Minute)

	for name, tok := range map[string]string{
		"empty":         "",
		"garbage":       "not.a.jwt",
		"wrong secret":  foreign,
	} {
		if _, err := as.SetContextFromToken(context.Background(), tok); !errors.Is(err, nberrors.ErrUnauthorized) {
			t.Fatalf("%s: want ErrUnauthorized, got %v", name, err)
		}
	}
	_ = expired
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	if _, err := NewAuthService(testLogger(), " ", ""); err == nil {
		t.Fatalf("expected missing secret error")
	}
}
