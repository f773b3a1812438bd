package transfer

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestThroughput(t *testing.T) {
	r := Result{Size: 1000, Elapsed: 2 * time.Second}
	if got := r.Throughput(); got != 4000 {
		t.Errorf("Throughput = %v, want 4000", got)
	}
	if got := (Result{Size: 1000}).Throughput(); got != 0 {
		t.Errorf("Throughput with zero elapsed = %v, want 0", got)
	}
}

func TestSuccessRate(t *testing.T) {
	testCases := []struct {
		segments, lost uint64
		want           float64
	}{
		{0, 0, 0},
		{10, 0, 100},
		{3, 1, 75},
		{0, 4, 0},
	}
	for _, tc := range testCases {
		r := Result{Segments: tc.segments, Lost: tc.lost}
		if got := r.SuccessRate(); got != tc.want {
			t.Errorf("SuccessRate(%d, %d) = %v, want %v", tc.segments, tc.lost, got, tc.want)
		}
	}
}

func TestResultString(t *testing.T) {
	ok := Result{Kind: KindDatagram, ID: 2, Size: 1000, Elapsed: time.Second, Segments: 1}
	if s := ok.String(); !strings.Contains(s, "[UDP] Transfer #2 finished") || !strings.Contains(s, "Success Rate: 100.0000%") {
		t.Errorf("unexpected summary %q", s)
	}

	failed := Result{Kind: KindStream, ID: 1, Err: errors.New("boom")}
	if s := failed.String(); !strings.Contains(s, "failed: boom") {
		t.Errorf("unexpected failure summary %q", s)
	}
}
