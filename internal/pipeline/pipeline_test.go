package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dicom-viewer/internal/detect"
	"dicom-viewer/internal/record"
)

// waitIdle blocks until the pipeline releases its single-flight slot.
func waitIdle(t *testing.T, p *Pipeline) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for p.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("pipeline did not become idle")
		}
		time.Sleep(time.Millisecond)
	}
}

// drainAll polls until a terminal message arrives, returning every
// dispatched message.
func drainAll(t *testing.T, p *Pipeline) []Message {
	t.Helper()
	var msgs []Message
	deadline := time.Now().Add(5 * time.Second)
	for {
		terminal := p.Poll(func(m Message) { msgs = append(msgs, m) })
		if terminal {
			return msgs
		}
		if time.Now().After(deadline) {
			t.Fatalf("no terminal message after %d messages", len(msgs))
		}
		time.Sleep(time.Millisecond)
	}
}

func simpleMeta(path string) record.Metadata {
	return record.Metadata{
		Path:              path,
		SeriesNumber:      1,
		SeriesDescription: "S",
		Modality:          "CT",
		FrameCount:        1,
	}
}

func TestLoadSingleFlight(t *testing.T) {
	p := New(detect.New())

	gate := make(chan struct{})
	p.SetExtractor(func(path string) (record.Metadata, error) {
		<-gate
		return simpleMeta(path), nil
	})

	if !p.LoadAsync([]string{"/a"}) {
		t.Fatal("first LoadAsync rejected on an idle pipeline")
	}
	if p.LoadAsync([]string{"/b"}) {
		t.Error("second LoadAsync accepted while a run is in flight")
	}
	if !p.Busy() {
		t.Error("Busy() = false while a worker is in flight")
	}

	close(gate)
	msgs := drainAll(t, p)
	waitIdle(t, p)

	completed := 0
	for _, m := range msgs {
		if _, ok := m.(Completed); ok {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("got %d Completed messages, want 1 (rejected request must not run)", completed)
	}

	// The slot is free again after the run.
	if !p.LoadAsync([]string{"/c"}) {
		t.Error("LoadAsync rejected after the previous run finished")
	}
	drainAll(t, p)
}

func TestPollDrainLimit(t *testing.T) {
	p := New(detect.New())
	p.SetExtractor(func(path string) (record.Metadata, error) {
		return simpleMeta(path), nil
	})

	// 30 files produce 10 progress messages plus one Completed.
	paths := make([]string, 30)
	for i := range paths {
		paths[i] = filepath.Join("/x", string(rune('a'+i)))
	}
	if !p.LoadAsync(paths) {
		t.Fatal("LoadAsync rejected")
	}
	waitIdle(t, p)

	if p.Pending() != 11 {
		t.Fatalf("Pending() = %d, want 11", p.Pending())
	}

	first := 0
	if terminal := p.Poll(func(Message) { first++ }); terminal {
		t.Error("terminal reported before the Completed message was drained")
	}
	if first != DrainLimit {
		t.Errorf("first Poll dispatched %d messages, want %d", first, DrainLimit)
	}

	second := 0
	if terminal := p.Poll(func(Message) { second++ }); !terminal {
		t.Error("terminal not reported with the Completed message")
	}
	if second != 1 {
		t.Errorf("second Poll dispatched %d messages, want 1", second)
	}

	if p.Pending() != 0 {
		t.Errorf("Pending() = %d after a full drain, want 0", p.Pending())
	}
}

func TestLoadSkipsFailedFiles(t *testing.T) {
	p := New(detect.New())
	p.SetExtractor(func(path string) (record.Metadata, error) {
		if filepath.Base(path) == "bad" {
			return record.Metadata{}, errors.New("torn file")
		}
		return simpleMeta(path), nil
	})

	if !p.LoadAsync([]string{"/d/one", "/d/bad", "/d/two"}) {
		t.Fatal("LoadAsync rejected")
	}
	msgs := drainAll(t, p)

	var series []record.Series
	for _, m := range msgs {
		if c, ok := m.(Completed); ok {
			series = c.Result.Series
		}
	}
	if len(series) != 1 {
		t.Fatalf("got %d series, want 1", len(series))
	}
	if len(series[0].Records) != 2 {
		t.Errorf("got %d records, want 2 (the torn file is skipped, not fatal)", len(series[0].Records))
	}
}

func TestLoadPanicPostsError(t *testing.T) {
	p := New(detect.New())
	p.SetExtractor(func(path string) (record.Metadata, error) {
		panic("corrupt state")
	})

	if !p.LoadAsync([]string{"/e/one"}) {
		t.Fatal("LoadAsync rejected")
	}
	msgs := drainAll(t, p)
	waitIdle(t, p)

	var sawError bool
	for _, m := range msgs {
		switch m.(type) {
		case Error:
			sawError = true
		case Completed:
			t.Error("Completed posted for a panicked run")
		}
	}
	if !sawError {
		t.Error("no Error message for a panicked run")
	}

	// A failed run must free the slot.
	p.SetExtractor(func(path string) (record.Metadata, error) {
		return simpleMeta(path), nil
	})
	if !p.LoadAsync([]string{"/e/two"}) {
		t.Error("pipeline stuck busy after a panic")
	}
	drainAll(t, p)
}

func TestStopCancelsRemainingFiles(t *testing.T) {
	p := New(detect.New())
	p.SetExtractor(func(path string) (record.Metadata, error) {
		// The first extraction requests cancellation; the loop must not
		// start any further file.
		p.Stop()
		return simpleMeta(path), nil
	})

	if !p.LoadAsync([]string{"/f/1", "/f/2", "/f/3", "/f/4", "/f/5"}) {
		t.Fatal("LoadAsync rejected")
	}
	msgs := drainAll(t, p)

	var series []record.Series
	for _, m := range msgs {
		if c, ok := m.(Completed); ok {
			series = c.Result.Series
		}
	}
	if len(series) != 1 || len(series[0].Records) != 1 {
		t.Errorf("cancelled load processed %+v, want exactly the first file", series)
	}
}

func TestScanEndToEnd(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.dcm", "b.dcm"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New(detect.New())
	if !p.ScanAsync(dir, true) {
		t.Fatal("ScanAsync rejected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got int
	p.Run(ctx, time.Millisecond, func(m Message) {
		if c, ok := m.(Completed); ok {
			got = len(c.Result.Candidates)
		}
	})

	if got != 2 {
		t.Errorf("scan found %d records, want 2", got)
	}
}

// TestIngestTwoSeries walks the whole ingest path: a directory of ten
// records and two non-record files scans down to ten candidates, and
// loading them yields two evenly filled series buckets.
func TestIngestTwoSeries(t *testing.T) {
	dir := t.TempDir()

	var paths []string
	for i := 1; i <= 5; i++ {
		for _, prefix := range []string{"a", "b"} {
			path := filepath.Join(dir, fmt.Sprintf("%s%02d.dcm", prefix, i))
			if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
				t.Fatal(err)
			}
			paths = append(paths, path)
		}
	}
	// Two extensionless files that fail every content probe.
	noise := make([]byte, 256)
	for i := range noise {
		noise[i] = 0xFF
	}
	for _, name := range []string{"junk1", "junk2"} {
		if err := os.WriteFile(filepath.Join(dir, name), noise, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	p := New(detect.New())
	if !p.ScanAsync(dir, true) {
		t.Fatal("ScanAsync rejected")
	}
	msgs := drainAll(t, p)
	waitIdle(t, p)

	var candidates int
	var found []string
	for _, m := range msgs {
		if c, ok := m.(Completed); ok {
			candidates = len(c.Result.Candidates)
			for _, cand := range c.Result.Candidates {
				found = append(found, cand.Path)
			}
		}
	}
	if candidates != 10 {
		t.Fatalf("scan returned %d candidates, want 10", candidates)
	}

	p.SetExtractor(func(path string) (record.Metadata, error) {
		m := record.Metadata{Path: path, FrameCount: 1, InstanceNumber: 1}
		if strings.HasPrefix(filepath.Base(path), "a") {
			m.SeriesNumber, m.SeriesDescription, m.Modality = 1, "A", "CT"
		} else {
			m.SeriesNumber, m.SeriesDescription, m.Modality = 2, "B", "MR"
		}
		return m, nil
	})
	if !p.LoadAsync(found) {
		t.Fatal("LoadAsync rejected")
	}
	msgs = drainAll(t, p)

	var series []record.Series
	for _, m := range msgs {
		if c, ok := m.(Completed); ok {
			series = c.Result.Series
		}
	}
	if len(series) != 2 {
		t.Fatalf("got %d series, want 2", len(series))
	}
	for _, s := range series {
		if len(s.Records) != 5 {
			t.Errorf("series %s has %d records, want 5", s.Key, len(s.Records))
		}
	}
}

func TestLoadProgressCadence(t *testing.T) {
	p := New(detect.New())
	p.SetExtractor(func(path string) (record.Metadata, error) {
		return simpleMeta(path), nil
	})

	if !p.LoadAsync([]string{"/g/1", "/g/2", "/g/3", "/g/4", "/g/5", "/g/6", "/g/7"}) {
		t.Fatal("LoadAsync rejected")
	}
	msgs := drainAll(t, p)

	var percents []float64
	for _, m := range msgs {
		if pr, ok := m.(Progress); ok {
			percents = append(percents, pr.Percent)
		}
	}
	// Every 3rd file plus the final one: 3, 6 and 7 of 7.
	want := []float64{3.0 / 7 * 100, 6.0 / 7 * 100, 100}
	if len(percents) != len(want) {
		t.Fatalf("got %d progress messages (%v), want %d", len(percents), percents, len(want))
	}
	for i := range want {
		if diff := percents[i] - want[i]; diff > 0.001 || diff < -0.001 {
			t.Errorf("progress[%d] = %v, want %v", i, percents[i], want[i])
		}
	}
}
