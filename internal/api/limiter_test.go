package api

import (
	"testing"
	"time"
)

func TestIntervalLimiter(t *testing.T) {
	t.Parallel()

	limiter := NewIntervalLimiter(3 * time.Second)
	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	if !limiter.Allow(base) {
		t.Fatal("first request must be admitted")
	}
	if limiter.Allow(base.Add(time.Second)) {
		t.Fatal("request inside the interval must be rejected")
	}
	if !limiter.Allow(base.Add(3 * time.Second)) {
		t.Fatal("request at the interval boundary must be admitted")
	}
	if limiter.Allow(base.Add(4 * time.Second)) {
		t.Fatal("rejections must not reset the interval")
	}
}
