// Package scan walks directory trees looking for DICOM records.
//
// Known-irrelevant subtrees (version control, caches, build output) are
// pruned before descent. Files partition three ways by extension:
// certain records (whitelist, no probing), rejected (blacklist), and
// uncertain candidates, which are probed in bounded batches with coarse
// progress reporting and a short yield between batches.
package scan
