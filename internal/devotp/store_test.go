package devotp

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_PutThenGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	expiresAt := time.Now().UTC().Add(5 * time.Minute)

	store.Put(ctx, "alice@example.com", "123456", expiresAt)

	otp, ok := store.Get(ctx, "alice@example.com")
	if !ok {
		t.Fatal("Get should return OTP after Put")
	}
	if otp != "123456" {
		t.Errorf("otp = %q, want %q", otp, "123456")
	}
}

func TestMemoryStore_Put_ReplacesPreviousCode(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	expiresAt := time.Now().UTC().Add(5 * time.Minute)

	store.Put(ctx, "alice@example.com", "111111", expiresAt)
	store.Put(ctx, "alice@example.com", "222222", expiresAt)

	otp, ok := store.Get(ctx, "alice@example.com")
	if !ok {
		t.Fatal("Get should return OTP after Put")
	}
	if otp != "222222" {
		t.Errorf("otp = %q, want the most recent code %q", otp, "222222")
	}
}

func TestMemoryStore_Get_ReturnsFalseWhenMissing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	otp, ok := store.Get(ctx, "nobody@example.com")
	if ok {
		t.Error("Get should return false when OTP is missing")
	}
	if otp != "" {
		t.Errorf("otp = %q, want empty string", otp)
	}
}

func TestMemoryStore_Get_ReturnsFalseWhenExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	expiresAt := time.Now().UTC().Add(-1 * time.Minute)

	store.Put(ctx, "alice@example.com", "123456", expiresAt)

	otp, ok := store.Get(ctx, "alice@example.com")
	if ok {
		t.Error("Get should return false when OTP is expired")
	}
	if otp != "" {
		t.Errorf("otp = %q, want empty string", otp)
	}
}

func TestMemoryStore_Get_CleansUpExpiredEntries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	expiresAt := time.Now().UTC().Add(-1 * time.Minute)

	store.Put(ctx, "alice@example.com", "123456", expiresAt)

	_, ok := store.Get(ctx, "alice@example.com")
	if ok {
		t.Error("Get should return false for expired OTP")
	}

	_, ok = store.Get(ctx, "alice@example.com")
	if ok {
		t.Error("Get should return false after cleanup")
	}
}
