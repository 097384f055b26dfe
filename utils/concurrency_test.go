package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://med.example.edu/admissions") {
		t.Error("first Add should return true")
	}
	if s.Add("https://med.example.edu/admissions") {
		t.Error("second Add of same URL should return false")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetCanonicalises(t *testing.T) {
	s := NewURLSet()
	s.Add("https://Med.Example.edu/admissions/")

	tests := []struct {
		url  string
		want bool
	}{
		{"https://med.example.edu/admissions", true},
		{"HTTPS://MED.EXAMPLE.EDU/admissions#deadlines", true},
		{"https://med.example.edu/Admissions", false},
		{"https://other.example.edu/admissions", false},
	}
	for _, tt := range tests {
		if got := s.Contains(tt.url); got != tt.want {
			t.Errorf("Contains(%q) = %v; want %v", tt.url, got, tt.want)
		}
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			if s.Add("https://med.example.edu/same") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 50
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var timestamps []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(timestamps) != 3 {
		t.Fatalf("expected 3 jobs to run, got %d", len(timestamps))
	}
	// the limiter measures from its reservation, a few microseconds before the job records its start
	min := time.Duration(rateLimitMs)*time.Millisecond - 5*time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		if gap := timestamps[i].Sub(timestamps[i-1]); gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestWorkerPoolZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0, 0)
	var ran int64
	pool.Submit(func() { atomic.AddInt64(&ran, 1) })
	pool.Wait()
	if ran != 1 {
		t.Errorf("expected job to run with a clamped pool, ran %d times", ran)
	}
}
