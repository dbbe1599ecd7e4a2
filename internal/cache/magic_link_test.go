package cache

import (
	"context"
	"testing"
	"time"
)

func TestMagicLinkSingleUse(t *testing.T) {
	ctx := context.Background()
	state := &MagicLinkState{Email: "amelia@example.com", Name: "Amelia", CreatedAt: time.Now().Unix()}
	if err := StoreMagicLink(ctx, "tok-abc", state, time.Minute); err != nil {
		t.Fatalf("StoreMagicLink error: %v", err)
	}

	got, hit, err := TakeMagicLink(ctx, "tok-abc")
	if err != nil || !hit {
		t.Fatalf("first take should hit, got hit=%v err=%v", hit, err)
	}
	if got.Email != "amelia@example.com" {
		t.Fatalf("unexpected email: %s", got.Email)
	}

	_, hit, err = TakeMagicLink(ctx, "tok-abc")
	if err != nil {
		t.Fatalf("second take error: %v", err)
	}
	if hit {
		t.Fatalf("second take should miss, token must be single use")
	}
}

func TestMagicLinkExpiry(t *testing.T) {
	ctx := context.Background()
	state := &MagicLinkState{Email: "late@example.com", CreatedAt: time.Now().Unix()}
	if err := StoreMagicLink(ctx, "tok-expired", state, -time.Second); err != nil {
		t.Fatalf("StoreMagicLink error: %v", err)
	}
	_, hit, err := TakeMagicLink(ctx, "tok-expired")
	if err != nil {
		t.Fatalf("take error: %v", err)
	}
	if hit {
		t.Fatalf("expired token should miss")
	}
}

func TestMagicLinkUnknownToken(t *testing.T) {
	_, hit, err := TakeMagicLink(context.Background(), "never-stored")
	if err != nil || hit {
		t.Fatalf("unknown token should miss without error, got hit=%v err=%v", hit, err)
	}
}
