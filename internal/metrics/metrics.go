package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scanner metrics
var (
	ScannerFilesVisited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_viewer_scanner_files_visited_total",
			Help: "Total number of files visited during directory scans",
		},
	)

	ScannerCandidatesProbed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_scanner_candidates_probed_total",
			Help: "Total number of uncertain candidates probed, by outcome",
		},
		[]string{"outcome"}, // "record", "rejected"
	)

	ScannerScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dicom_viewer_scanner_scan_duration_seconds",
			Help:    "Directory scan duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ScannerDirectoriesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_viewer_scanner_directories_pruned_total",
			Help: "Total number of directories pruned by the skip-list",
		},
	)
)

// Detector metrics
var (
	DetectorChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_detector_checks_total",
			Help: "Total number of detector classifications, by method and result",
		},
		[]string{"method", "result"}, // method: extension, size, parse, magic, tagpair, none
	)

	DetectorParseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dicom_viewer_detector_parse_duration_seconds",
			Help:    "Metadata-only structural parse duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// Pipeline metrics
var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_pipeline_runs_total",
			Help: "Total number of pipeline runs, by kind",
		},
		[]string{"kind"}, // "scan", "load"
	)

	PipelineBusyRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_viewer_pipeline_busy_rejections_total",
			Help: "Requests rejected because a run was already in flight",
		},
	)

	PipelineMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_pipeline_messages_total",
			Help: "Messages posted to the pipeline queue, by type",
		},
		[]string{"type"}, // "progress", "completed", "error"
	)

	PipelineFilesLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_viewer_pipeline_files_loaded_total",
			Help: "Files whose metadata was extracted successfully",
		},
	)

	PipelineFilesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_viewer_pipeline_files_skipped_total",
			Help: "Files skipped due to per-file extraction failures",
		},
	)

	PipelineIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_pipeline_running",
			Help: "Whether a pipeline worker is currently active (1 or 0)",
		},
	)
)

// Pixel metrics
var (
	PixelDecodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dicom_viewer_pixel_decode_duration_seconds",
			Help:    "Pixel data decode duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PixelFramesNormalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_viewer_pixel_frames_normalized_total",
			Help: "Total number of frames normalized to 8-bit",
		},
	)
)

// Store metrics
var (
	StoreQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_store_queries_total",
			Help: "Total number of ledger queries, by operation and status",
		},
		[]string{"operation", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dicom_viewer_store_query_duration_seconds",
			Help:    "Ledger query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	StoreRecordsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_viewer_store_records_saved_total",
			Help: "Total number of records written to the ledger",
		},
	)
)
