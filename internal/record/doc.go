// Package record extracts lightweight metadata from DICOM files and
// organizes records into series buckets.
//
// Extraction is metadata-only: pixel data is never read. Bucketing keys
// on (series number, description, modality, video flag); each bucket is
// sorted ascending by instance number with arrival order breaking ties.
package record
