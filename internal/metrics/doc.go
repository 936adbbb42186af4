// Package metrics defines Prometheus collectors for the scanner,
// detector, pipeline, pixel and store subsystems. Collectors register
// themselves with the default registry via promauto; exposition is the
// embedding application's concern.
package metrics
