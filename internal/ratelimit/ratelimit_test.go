package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllow_DisabledWithoutRedis(t *testing.T) {
	l := New(nil, "suggest", 10, time.Minute)
	for i := 0; i < 100; i++ {
		ok, err := l.Allow(context.Background(), "contractor:1")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatal("limiter without redis must always allow")
		}
	}
}

func TestAllow_NilLimiter(t *testing.T) {
	var l *Limiter
	ok, err := l.Allow(context.Background(), "x")
	if err != nil || !ok {
		t.Fatalf("nil limiter should allow, got ok=%v err=%v", ok, err)
	}
}
