// Package workers calculates worker pool sizes based on available CPU
// resources. It is used to bound the concurrency of candidate probing
// during directory scans.
package workers
