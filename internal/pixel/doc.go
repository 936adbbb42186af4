// Package pixel decodes record pixel data and normalizes it for
// display.
//
// Decode produces a numeric sample Buffer (single frame or frame
// stack); Normalize maps it to an 8-bit DisplayBuffer using windowed
// grayscale mapping when center/width hints are available and a
// per-frame min-max stretch otherwise. Preview helpers render frames to
// image files.
package pixel
