package session

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAppendAndHistory(t *testing.T) {
	s := NewStore(2*time.Minute, 40)

	s.AppendTurn("s1", "what courses do you offer", "We offer B.Sc and M.Sc programs.")
	s.AppendTurn("s1", "what about fees", "Fees depend on the course.")

	h := s.History("s1", 10)
	if !strings.Contains(h, "User: what courses do you offer") {
		t.Errorf("history missing first user line:\n%s", h)
	}
	if !strings.Contains(h, "Bot: Fees depend on the course.") {
		t.Errorf("history missing last bot line:\n%s", h)
	}
	if strings.Index(h, "what courses") > strings.Index(h, "what about fees") {
		t.Errorf("history out of order:\n%s", h)
	}
}

func TestHistoryWindow(t *testing.T) {
	s := NewStore(2*time.Minute, 40)
	for i := 0; i < 12; i++ {
		s.AppendTurn("s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	// 10 messages = 5 exchanges
	h := s.History("s1", 10)
	if strings.Contains(h, "q6\n") {
		t.Errorf("history window too wide:\n%s", h)
	}
	if !strings.Contains(h, "User: q7") || !strings.Contains(h, "User: q11") {
		t.Errorf("history window dropped recent turns:\n%s", h)
	}
}

func TestTranscriptCap(t *testing.T) {
	// Cap of 4 entries = 2 exchanges.
	s := NewStore(2*time.Minute, 4)
	for i := 0; i < 10; i++ {
		s.AppendTurn("s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	h := s.History("s1", 1000)
	if strings.Contains(h, "User: q7\n") {
		t.Errorf("turns beyond cap were kept:\n%s", h)
	}
	if !strings.Contains(h, "User: q8") || !strings.Contains(h, "User: q9") {
		t.Errorf("latest turns missing:\n%s", h)
	}
}

func TestTranscriptCapCountsEntries(t *testing.T) {
	s := NewStore(2*time.Minute, 40)
	for i := 0; i < 30; i++ {
		s.AppendTurn("s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	h := s.History("s1", 1000)
	entries := strings.Count(h, "User: ") + strings.Count(h, "Bot: ")
	if entries != 40 {
		t.Fatalf("entries retained = %d, want 40", entries)
	}
	if strings.Contains(h, "User: q9\n") {
		t.Errorf("exchange beyond the entry cap retained:\n%s", h)
	}
	if !strings.Contains(h, "User: q10\n") {
		t.Errorf("oldest in-cap exchange missing:\n%s", h)
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	s := NewStore(50*time.Millisecond, 40)
	s.Touch("old")
	time.Sleep(80 * time.Millisecond)
	s.Touch("fresh")

	if evicted := s.Sweep(); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if got := s.Count(); got != 1 {
		t.Fatalf("expected 1 live session, got %d", got)
	}
	if h := s.History("old", 10); h != "" {
		t.Errorf("expired session still has history: %q", h)
	}
}

func TestUnknownSessionHistoryEmpty(t *testing.T) {
	s := NewStore(2*time.Minute, 40)
	if h := s.History("nope", 10); h != "" {
		t.Errorf("expected empty history, got %q", h)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore(2*time.Minute, 40)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", n%4)
			s.AppendTurn(id, "q", "a")
			s.History(id, 10)
			s.Sweep()
		}(i)
	}
	wg.Wait()

	if got := s.Count(); got != 4 {
		t.Fatalf("expected 4 sessions, got %d", got)
	}
}
