// Package pipeline runs directory scans and metadata ingestion on a
// single background worker per pipeline instance.
//
// Requests are single-flight: a second request while one is running is
// a silent no-op. The worker communicates only through a FIFO message
// queue of Progress, Completed and Error values; the host drains at
// most ten messages per Poll so a burst cannot monopolize a scheduler
// tick. Cancellation is cooperative and observed between scan batches
// and between per-file extractions.
package pipeline
