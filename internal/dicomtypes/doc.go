// Package dicomtypes holds the classification tables shared by the
// detector and the scanner: extension whitelists and blacklists, the
// directory skip-list, filename keywords, and the UID sets used by the
// video heuristics.
package dicomtypes
