package ledger

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "ledger.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestReplaceDocuments(t *testing.T) {
	s, _ := openTestStore(t)
	now := time.Now().Truncate(time.Second)

	first := []DocumentEntry{
		{Rel: "b.md", Size: 10, Mtime: now, Chunks: 2, IndexedAt: now},
		{Rel: "a.md", Size: 20, Mtime: now, Chunks: 3, IndexedAt: now},
	}
	if err := s.ReplaceDocuments(first); err != nil {
		t.Fatalf("ReplaceDocuments: %v", err)
	}

	entries, err := s.Documents()
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(entries) != 2 || entries[0].Rel != "a.md" || entries[1].Rel != "b.md" {
		t.Fatalf("entries = %+v, want a.md then b.md", entries)
	}
	if entries[0].Chunks != 3 || entries[0].Size != 20 {
		t.Errorf("a.md entry = %+v", entries[0])
	}
	if !entries[0].Mtime.Equal(now) {
		t.Errorf("Mtime = %v, want %v", entries[0].Mtime, now)
	}

	// A later replace drops what is no longer in the vault.
	second := []DocumentEntry{
		{Rel: "a.md", Size: 21, Mtime: now.Add(time.Minute), Chunks: 4, IndexedAt: now.Add(time.Minute)},
	}
	if err := s.ReplaceDocuments(second); err != nil {
		t.Fatalf("second ReplaceDocuments: %v", err)
	}
	entries, err = s.Documents()
	if err != nil {
		t.Fatalf("Documents after replace: %v", err)
	}
	if len(entries) != 1 || entries[0].Rel != "a.md" || entries[0].Chunks != 4 {
		t.Errorf("entries after replace = %+v", entries)
	}
}

func TestStats(t *testing.T) {
	s, _ := openTestStore(t)

	st, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats on empty ledger: %v", err)
	}
	if st.Documents != 0 || st.Chunks != 0 || !st.LastIndexed.IsZero() {
		t.Errorf("empty stats = %+v", st)
	}

	now := time.Now().Truncate(time.Second)
	entries := []DocumentEntry{
		{Rel: "a.md", Size: 1, Mtime: now, Chunks: 2, IndexedAt: now},
		{Rel: "b.md", Size: 1, Mtime: now, Chunks: 5, IndexedAt: now},
	}
	if err := s.ReplaceDocuments(entries); err != nil {
		t.Fatalf("ReplaceDocuments: %v", err)
	}

	st, err = s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Documents != 2 || st.Chunks != 7 {
		t.Errorf("stats = %+v, want 2 documents and 7 chunks", st)
	}
	if !st.LastIndexed.Equal(now) {
		t.Errorf("LastIndexed = %v, want %v", st.LastIndexed, now)
	}
}

func TestRecordRun(t *testing.T) {
	s, _ := openTestStore(t)
	base := time.Now().Truncate(time.Second)

	id, err := s.RecordRun(Run{
		Kind:       "index",
		StartedAt:  base,
		FinishedAt: base.Add(2 * time.Second),
		Documents:  3,
		Chunks:     9,
		Outcome:    "ok",
	})
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if id == "" {
		t.Fatal("RecordRun assigned no id")
	}

	if _, err := s.RecordRun(Run{
		Kind:      "ask",
		StartedAt: base.Add(time.Minute),
		Outcome:   "ok",
	}); err != nil {
		t.Fatalf("second RecordRun: %v", err)
	}

	runs, err := s.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].Kind != "ask" || runs[1].Kind != "index" {
		t.Errorf("run order = [%s %s], want newest first", runs[0].Kind, runs[1].Kind)
	}
	if runs[1].ID != id || runs[1].Chunks != 9 {
		t.Errorf("index run = %+v", runs[1])
	}
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	now := time.Now().Truncate(time.Second)
	if err := s.ReplaceDocuments([]DocumentEntry{{Rel: "a.md", Size: 1, Mtime: now, Chunks: 1, IndexedAt: now}}); err != nil {
		t.Fatalf("ReplaceDocuments: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	entries, err := s.Documents()
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(entries) != 1 || entries[0].Rel != "a.md" {
		t.Errorf("entries after reopen = %+v", entries)
	}
}
