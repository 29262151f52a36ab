package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestStore_SetGet(t *testing.T) {
	s := New("", zerolog.Nop())
	defer s.Close()
	ctx := context.Background()

	s.Set(ctx, "k", []byte("v"), time.Minute)

	got, ok := s.Get(ctx, "k")
	if !ok {
		t.Fatalf("expected hit")
	}
	if string(got) != "v" {
		t.Fatalf("got %q", got)
	}
}

func TestStore_MissingKey(t *testing.T) {
	s := New("", zerolog.Nop())
	defer s.Close()

	if _, ok := s.Get(context.Background(), "absent"); ok {
		t.Fatalf("expected miss")
	}
}

func TestStore_Expiry(t *testing.T) {
	s := New("", zerolog.Nop())
	defer s.Close()
	ctx := context.Background()

	s.Set(ctx, "k", []byte("v"), 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestStore_InvalidRedisURLDowngrades(t *testing.T) {
	s := New("not-a-url", zerolog.Nop())
	defer s.Close()
	ctx := context.Background()

	s.Set(ctx, "k", []byte("v"), time.Minute)
	if _, ok := s.Get(ctx, "k"); !ok {
		t.Fatalf("memory fallback must still work")
	}
}
