package bulk

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

func TestRunAllSucceed(t *testing.T) {
	ids := []string{"c", "a", "b"}

	var mu sync.Mutex
	seen := make(map[string]bool)

	result := Run(context.Background(), ids, func(ctx context.Context, id string) error {
		mu.Lock()
		seen[id] = true
		mu.Unlock()
		return nil
	})

	if !result.Succeeded() {
		t.Fatalf("expected success, failed: %v", result.Failed)
	}
	if len(result.Done) != 3 {
		t.Fatalf("expected 3 done, got %d", len(result.Done))
	}
	if result.Done[0] != "a" || result.Done[1] != "b" || result.Done[2] != "c" {
		t.Errorf("expected sorted done ids, got %v", result.Done)
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("action never ran for %q", id)
		}
	}
}

func TestRunPartialFailure(t *testing.T) {
	boom := errors.New("indisponible")

	result := Run(context.Background(), []string{"ok-1", "bad", "ok-2"}, func(ctx context.Context, id string) error {
		if id == "bad" {
			return boom
		}
		return nil
	})

	if result.Succeeded() {
		t.Fatal("expected partial failure")
	}
	if len(result.Done) != 2 {
		t.Errorf("expected 2 done, got %v", result.Done)
	}
	if !errors.Is(result.Failed["bad"], boom) {
		t.Errorf("expected failure for 'bad', got %v", result.Failed)
	}
	if got := result.FailedIDs(); len(got) != 1 || got[0] != "bad" {
		t.Errorf("expected failed ids [bad], got %v", got)
	}
}

func TestRunEmpty(t *testing.T) {
	result := Run(context.Background(), nil, func(ctx context.Context, id string) error {
		t.Error("action should not run for empty input")
		return nil
	})
	if !result.Succeeded() || len(result.Done) != 0 {
		t.Errorf("expected empty success, got %+v", result)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Run(ctx, []string{"a", "b"}, func(ctx context.Context, id string) error {
		return nil
	})

	if len(result.Failed) != 2 {
		t.Errorf("expected all ids to fail under cancelled context, got %+v", result)
	}
}

func TestResultSummary(t *testing.T) {
	ok := Result{Done: []string{"a", "b"}, Failed: map[string]error{}}
	if got := ok.Summary(); got != "2 enregistrements traités" {
		t.Errorf("unexpected summary: %q", got)
	}

	partial := Result{Done: []string{"a"}, Failed: map[string]error{"b": errors.New("x")}}
	if got := partial.Summary(); got != "1 enregistrements traités, 1 en échec" {
		t.Errorf("unexpected summary: %q", got)
	}
}

func TestOpenAllCountsBlocked(t *testing.T) {
	blocked := errors.New("bloqué")
	calls := 0

	got := OpenAll([]string{"l1", "l2", "l3"}, func(link string) error {
		calls++
		if link == "l2" {
			return blocked
		}
		return nil
	})

	if calls != 3 {
		t.Errorf("expected 3 open attempts, got %d", calls)
	}
	if got != 1 {
		t.Errorf("expected 1 blocked, got %d", got)
	}
}

func TestShareLinks(t *testing.T) {
	if got := ShareLinks([]string{"only"}); got != "only" {
		t.Errorf("single link should pass through, got %q", got)
	}
	if got := ShareLinks([]string{"a", "b"}); got != "a\nb" {
		t.Errorf("expected newline join, got %q", got)
	}
}

func TestLink(t *testing.T) {
	got := Link("https://guichet.example/", "lyon", "signalements", "sig-1")
	want := "https://guichet.example/lyon/signalements/sig-1"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestWriteArchive(t *testing.T) {
	files := []ArchiveFile{
		{Name: "sig-1.json", Data: []byte(`{"titre":"Nid de poule"}`), ModTime: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Name: "sig-2.json", Data: []byte(`{"titre":"Lampadaire"}`), ModTime: time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	if err := WriteArchive(&buf, files); err != nil {
		t.Fatalf("writing archive: %v", err)
	}

	gr, err := gzip.NewReader(&buf)
	if err != nil {
		t.Fatalf("opening gzip: %v", err)
	}
	tr := tar.NewReader(gr)

	for i := 0; ; i++ {
		hdr, err := tr.Next()
		if err == io.EOF {
			if i != len(files) {
				t.Errorf("expected %d entries, got %d", len(files), i)
			}
			break
		}
		if err != nil {
			t.Fatalf("reading archive: %v", err)
		}
		if hdr.Name != files[i].Name {
			t.Errorf("entry %d: expected %q, got %q", i, files[i].Name, hdr.Name)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("reading entry %s: %v", hdr.Name, err)
		}
		if !bytes.Equal(data, files[i].Data) {
			t.Errorf("entry %s: content mismatch", hdr.Name)
		}
	}
}

func TestRunBoundedConcurrency(t *testing.T) {
	var mu sync.Mutex
	running, peak := 0, 0

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%02d", i)
	}

	result := Run(context.Background(), ids, func(ctx context.Context, id string) error {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return nil
	})

	if !result.Succeeded() {
		t.Fatalf("expected success, failed: %v", result.Failed)
	}
	if peak > DefaultConcurrency {
		t.Errorf("concurrency exceeded limit: peak %d", peak)
	}
}
