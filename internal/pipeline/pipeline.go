package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dicom-viewer/internal/detect"
	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/metrics"
	"dicom-viewer/internal/record"
	"dicom-viewer/internal/scan"
)

const (
	// DrainLimit bounds how many messages one Poll dispatches. A burst of
	// progress messages must not monopolize a scheduler tick.
	DrainLimit = 10

	// progressEvery controls the load progress cadence: every 3rd file,
	// plus unconditionally the last one.
	progressEvery = 3
)

// Extractor reads record metadata for one path. Injectable for tests.
type Extractor func(path string) (record.Metadata, error)

// Pipeline owns one background worker at a time. ScanAsync and
// LoadAsync are mutually exclusive with each other and with themselves:
// a request while a run is in flight is silently rejected. Workers never
// touch shared state directly; they only append messages to the queue,
// which the host drains via Poll on its own cadence.
//
// Pipeline state is per-instance: independent pipelines are
// independently single-flight.
type Pipeline struct {
	scanner *scan.Scanner
	det     *detect.Detector
	extract Extractor

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	q queue
}

// New creates a Pipeline using det for probing and video
// classification.
func New(det *detect.Detector) *Pipeline {
	return &Pipeline{
		scanner: scan.NewScanner(det),
		det:     det,
		extract: record.Extract,
	}
}

// SetExtractor replaces the metadata extractor. Intended for tests.
func (p *Pipeline) SetExtractor(fn Extractor) {
	p.extract = fn
}

// Busy reports whether a worker is currently in flight.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Pending returns the number of queued, undrained messages.
func (p *Pipeline) Pending() int {
	return p.q.len()
}

// ScanAsync starts a background directory scan. Returns false without
// side effects when a run is already in flight.
func (p *Pipeline) ScanAsync(root string, recursive bool) bool {
	ctx, ok := p.tryStart("scan")
	if !ok {
		return false
	}
	go p.runScan(ctx, root, recursive)
	return true
}

// LoadAsync starts background metadata extraction and series bucketing
// for the given paths. Returns false without side effects when a run is
// already in flight.
func (p *Pipeline) LoadAsync(paths []string) bool {
	ctx, ok := p.tryStart("load")
	if !ok {
		return false
	}
	go p.runLoad(ctx, paths)
	return true
}

// Stop requests cooperative cancellation of the current run. No new
// scan batch or per-file extraction begins after the flag is observed;
// work already in progress finishes, and queued messages remain
// drainable.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
}

// Poll drains up to DrainLimit queued messages, dispatches each to
// handler in FIFO order, and reports whether a terminal message
// (Completed or Error) was seen. The host's scheduler calls Poll on a
// fixed cadence and stops polling once terminal is true.
func (p *Pipeline) Poll(handler func(Message)) (terminal bool) {
	for _, m := range p.q.drain(DrainLimit) {
		handler(m)
		if IsTerminal(m) {
			terminal = true
		}
	}
	return terminal
}

// Run polls on a fixed cadence until a terminal message is dispatched
// or ctx is cancelled. It is the event-loop analogue for hosts without
// their own scheduler, such as the CLI.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration, handler func(Message)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if p.Poll(handler) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// tryStart claims the single-flight slot and returns the run context.
func (p *Pipeline) tryStart(kind string) (context.Context, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		logging.Debug("pipeline busy, rejecting %s request", kind)
		metrics.PipelineBusyRejections.Inc()
		return nil, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.running = true
	p.cancel = cancel

	metrics.PipelineRunsTotal.WithLabelValues(kind).Inc()
	metrics.PipelineIsRunning.Set(1)
	return ctx, true
}

// finish releases the single-flight slot.
func (p *Pipeline) finish() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.running = false
	p.mu.Unlock()

	metrics.PipelineIsRunning.Set(0)
}

// post appends one message to the queue.
func (p *Pipeline) post(m Message) {
	switch m.(type) {
	case Progress:
		metrics.PipelineMessagesTotal.WithLabelValues("progress").Inc()
	case Completed:
		metrics.PipelineMessagesTotal.WithLabelValues("completed").Inc()
	case Error:
		metrics.PipelineMessagesTotal.WithLabelValues("error").Inc()
	}
	p.q.push(m)
}

// runScan is the scan worker body. Scanner progress is forwarded
// verbatim; the candidate list rides the Completed message. Series
// organization is deliberately not performed here; that is the caller's
// choice via a subsequent LoadAsync.
func (p *Pipeline) runScan(ctx context.Context, root string, recursive bool) {
	defer p.finish()
	defer p.recoverToError("scan")

	candidates := p.scanner.Scan(ctx, root, recursive, func(percent float64, status string) {
		p.post(Progress{Percent: percent, Text: status})
	})

	p.post(Completed{Result: Result{Candidates: candidates}})
}

// runLoad is the load worker body. Per-file failures are logged and
// skipped; one bad file never aborts the batch. Only a failure escaping
// this loop (a panic) discards the run.
func (p *Pipeline) runLoad(ctx context.Context, paths []string) {
	defer p.finish()
	defer p.recoverToError("load")

	g := record.NewGrouper()
	total := len(paths)

	for i, path := range paths {
		if ctx.Err() != nil {
			logging.Info("load cancelled after %d/%d files", i, total)
			break
		}

		meta, err := p.extract(path)
		if err != nil {
			logging.Warn("skipping %s: %v", path, err)
			metrics.PipelineFilesSkipped.Inc()
			continue
		}
		meta.Video = p.det.VideoFromMetadata(meta)
		g.Add(meta)
		metrics.PipelineFilesLoaded.Inc()

		if (i+1)%progressEvery == 0 || i == total-1 {
			p.post(Progress{
				Percent: float64(i+1) / float64(total) * 100,
				Text:    fmt.Sprintf("Processing file %d/%d", i+1, total),
			})
		}
	}

	p.post(Completed{Result: Result{Series: g.Series()}})
}

// recoverToError converts a worker panic into a single Error message.
// The pipeline is then free to accept a new request.
func (p *Pipeline) recoverToError(kind string) {
	if r := recover(); r != nil {
		logging.Error("%s worker failed: %v", kind, r)
		p.post(Error{Text: fmt.Sprintf("%s failed: %v", kind, r)})
	}
}
