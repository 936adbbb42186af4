package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dicom-viewer/internal/dicomtypes"
	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/metrics"
	"dicom-viewer/internal/workers"
)

const (
	// probeBatchDivisor sizes probe batches at total/50 (minimum 1) so
	// progress lands roughly every 2%.
	probeBatchDivisor = 50

	// batchDelay is a short voluntary yield between probe batches to keep
	// the scan cooperative with other work.
	batchDelay = 5 * time.Millisecond

	// maxProbeWorkers caps the concurrent probes within one batch.
	maxProbeWorkers = 8
)

// Classification is the lazily-known state of a scanned file.
type Classification string

const (
	// ClassUnknown marks a candidate not yet probed.
	ClassUnknown Classification = "unknown"
	// ClassRecord marks a confirmed DICOM record.
	ClassRecord Classification = "record"
	// ClassVideo marks a confirmed video record.
	ClassVideo Classification = "video"
	// ClassRejected marks a file excluded from ingestion.
	ClassRejected Classification = "rejected"
)

// Candidate is a file-system path with its classification state. The
// path is the identity; the classification is set once.
type Candidate struct {
	Path  string         `json:"path"`
	Class Classification `json:"class"`
}

// ProgressFunc receives coarse scan progress: a 0-100 percentage and a
// human-readable status line.
type ProgressFunc func(percent float64, status string)

// Prober decides whether an uncertain file is a record. Satisfied by
// detect.Detector.
type Prober interface {
	ClassifyRecord(path string) bool
}

// Scanner walks directory trees looking for DICOM records.
type Scanner struct {
	det          Prober
	probeWorkers int
}

// NewScanner creates a Scanner probing with det.
func NewScanner(det Prober) *Scanner {
	return &Scanner{
		det:          det,
		probeWorkers: workers.ForIO(maxProbeWorkers),
	}
}

// Scan walks root (one level, or the full subtree when recursive),
// prunes skip-listed directories before descending, and returns the
// certain records followed by the probe-confirmed candidates.
//
// An inaccessible root reports 0% progress with an error string and
// returns an empty result; it is not a fatal error. Cancellation via ctx
// is cooperative and checked between probe batches only.
func (s *Scanner) Scan(ctx context.Context, root string, recursive bool, onProgress ProgressFunc) []Candidate {
	start := time.Now()
	defer func() {
		metrics.ScannerScanDuration.Observe(time.Since(start).Seconds())
	}()

	report := func(percent float64, status string) {
		if onProgress != nil {
			onProgress(percent, status)
		}
	}

	if _, err := os.ReadDir(root); err != nil {
		logging.Warn("scan root inaccessible: %v", err)
		report(0, fmt.Sprintf("Cannot access directory: %v", err))
		return []Candidate{}
	}

	certain, candidates := s.collect(root, recursive)
	logging.Info("Scan of %s: %d certain records, %d candidates to probe",
		root, len(certain), len(candidates))

	confirmed := s.probeCandidates(ctx, candidates, report)

	result := make([]Candidate, 0, len(certain)+len(confirmed))
	result = append(result, certain...)
	result = append(result, confirmed...)

	if len(candidates) == 0 {
		report(100, fmt.Sprintf("Scan complete: %d records", len(result)))
	}
	return result
}

// collect partitions the tree into certain records and uncertain
// candidates. Candidates whose names carry imaging keywords are
// front-loaded so likely hits are probed first.
func (s *Scanner) collect(root string, recursive bool) (certain []Candidate, candidates []string) {
	var priority, normal []string

	classify := func(path string) {
		metrics.ScannerFilesVisited.Inc()
		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case dicomtypes.IsRecordExtension(ext):
			certain = append(certain, Candidate{Path: path, Class: ClassRecord})
		case dicomtypes.IsRejectedExtension(ext):
			// skipped without I/O
		case dicomtypes.IsCandidateExtension(ext):
			if dicomtypes.HasImagingKeyword(path) {
				priority = append(priority, path)
			} else {
				normal = append(normal, path)
			}
		}
	}

	if recursive {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logging.Warn("error accessing %s: %v", path, err)
				return nil
			}
			if d.IsDir() {
				if path != root && dicomtypes.ShouldSkipDirectory(d.Name()) {
					metrics.ScannerDirectoriesPruned.Inc()
					return filepath.SkipDir
				}
				return nil
			}
			classify(path)
			return nil
		})
		if err != nil {
			logging.Warn("walk of %s aborted: %v", root, err)
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return certain, nil
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			classify(filepath.Join(root, entry.Name()))
		}
	}

	return certain, append(priority, normal...)
}

// probeCandidates probes the uncertain files in bounded batches,
// reporting progress after each batch and yielding briefly between them.
func (s *Scanner) probeCandidates(ctx context.Context, candidates []string, report ProgressFunc) []Candidate {
	total := len(candidates)
	if total == 0 {
		return nil
	}

	batchSize := total / probeBatchDivisor
	if batchSize < 1 {
		batchSize = 1
	}

	var confirmed []Candidate
	processed := 0

	for offset := 0; offset < total; offset += batchSize {
		if ctx.Err() != nil {
			logging.Info("Scan cancelled after probing %d/%d candidates", processed, total)
			break
		}

		end := offset + batchSize
		if end > total {
			end = total
		}
		batch := candidates[offset:end]

		confirmed = append(confirmed, s.probeBatch(batch)...)
		processed += len(batch)

		report(float64(processed)/float64(total)*95+5,
			fmt.Sprintf("Probed %d/%d candidate files", processed, total))

		time.Sleep(batchDelay)
	}

	return confirmed
}

// probeBatch classifies one batch concurrently on a bounded worker pool,
// preserving candidate order in the result.
func (s *Scanner) probeBatch(batch []string) []Candidate {
	hits := make([]bool, len(batch))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.probeWorkers)
	for i, path := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			hits[i] = s.det.ClassifyRecord(path)
		}(i, path)
	}
	wg.Wait()

	var confirmed []Candidate
	for i, hit := range hits {
		if hit {
			metrics.ScannerCandidatesProbed.WithLabelValues("record").Inc()
			confirmed = append(confirmed, Candidate{Path: batch[i], Class: ClassRecord})
		} else {
			metrics.ScannerCandidatesProbed.WithLabelValues("rejected").Inc()
		}
	}
	return confirmed
}
