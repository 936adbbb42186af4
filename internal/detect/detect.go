package detect

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-viewer/internal/dicomtypes"
	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/metrics"
	"dicom-viewer/internal/record"
)

const (
	// minRecordSize is the smallest file that can hold a DICOM header.
	minRecordSize = 128
	// maxRecordSize rejects implausibly large files (500 MiB).
	maxRecordSize = 500 << 20
	// magicOffset is where the "DICM" marker sits in a Part 10 file.
	magicOffset = 128
)

var magicMarker = []byte("DICM")

// headerTagPairs is the whitelist of (group, element) pairs accepted by
// the last-resort raw byte probe: file meta group tags and the leading
// tags of a headerless implicit-VR dataset.
var headerTagPairs = map[[2]uint16]bool{
	{0x0002, 0x0000}: true, // File Meta Information Group Length
	{0x0002, 0x0001}: true, // File Meta Information Version
	{0x0002, 0x0002}: true, // Media Storage SOP Class UID
	{0x0002, 0x0003}: true, // Media Storage SOP Instance UID
	{0x0002, 0x0010}: true, // Transfer Syntax UID
	{0x0008, 0x0005}: true, // Specific Character Set
	{0x0008, 0x0008}: true, // Image Type
	{0x0008, 0x0016}: true, // SOP Class UID
	{0x0008, 0x0018}: true, // SOP Instance UID
}

// Detector classifies files as DICOM records and records as video
// content using layered heuristics that avoid a full decode. The parse
// and frame-count functions are fields so a stricter full-parse check
// can replace the byte probes without affecting callers.
type Detector struct {
	parse      func(path string) error
	frameCount func(path string) (int, error)
}

// New returns a Detector backed by the real metadata parser.
func New() *Detector {
	return &Detector{
		parse:      structuralParse,
		frameCount: decodedFrameCount,
	}
}

// ClassifyRecord reports whether the file is probably a DICOM record.
// Checks run cheapest first and short-circuit on the first match:
// extension whitelist, size bounds, metadata-only parse, magic marker at
// offset 128, header tag-pair probe.
func (d *Detector) ClassifyRecord(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if dicomtypes.IsRecordExtension(ext) {
		metrics.DetectorChecksTotal.WithLabelValues("extension", "true").Inc()
		return true
	}

	info, err := os.Stat(path)
	if err != nil {
		metrics.DetectorChecksTotal.WithLabelValues("size", "false").Inc()
		return false
	}
	if info.Size() < minRecordSize || info.Size() > maxRecordSize {
		metrics.DetectorChecksTotal.WithLabelValues("size", "false").Inc()
		return false
	}

	if err := d.parse(path); err == nil {
		metrics.DetectorChecksTotal.WithLabelValues("parse", "true").Inc()
		return true
	}

	if d.probeMagic(path) {
		metrics.DetectorChecksTotal.WithLabelValues("magic", "true").Inc()
		return true
	}

	if d.probeTagPairs(path) {
		metrics.DetectorChecksTotal.WithLabelValues("tagpair", "true").Inc()
		return true
	}

	metrics.DetectorChecksTotal.WithLabelValues("none", "false").Inc()
	return false
}

// ClassifyVideo reports whether the file probably holds multi-frame or
// video content. It extracts metadata and delegates to VideoFromMetadata.
func (d *Detector) ClassifyVideo(path string) bool {
	meta, err := record.Extract(path)
	if err != nil {
		return false
	}
	return d.VideoFromMetadata(meta)
}

// VideoFromMetadata applies the video decision ladder to already
// extracted metadata: known video transfer syntax, known video SOP
// class, frame count with timing hint, then a decode-confirmed check for
// cine-capable modalities. A failing check never aborts the ladder.
func (d *Detector) VideoFromMetadata(m record.Metadata) bool {
	if dicomtypes.VideoTransferSyntaxes[m.TransferSyntax] {
		return true
	}
	if dicomtypes.VideoSOPClasses[m.SOPClassUID] {
		return true
	}
	if m.FrameCount > 1 && (m.FrameTimeHint || m.FrameCount > 10) {
		return true
	}
	if dicomtypes.VideoModalities[m.Modality] {
		if n, err := d.frameCount(m.Path); err == nil && n > 1 {
			return true
		}
	}
	return false
}

// probeMagic checks for the 4-byte "DICM" marker at offset 128.
func (d *Detector) probeMagic(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer closeQuietly(f, path)

	buf := make([]byte, len(magicMarker))
	if _, err := f.ReadAt(buf, magicOffset); err != nil {
		return false
	}
	return string(buf) == string(magicMarker)
}

// probeTagPairs inspects the first 16 bytes as two little-endian
// (group, element) pairs at offsets 0 and 8 and accepts the file when
// both are whitelisted header tags. Best-effort: headerless exports
// start straight with the dataset.
func (d *Detector) probeTagPairs(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer closeQuietly(f, path)

	buf := make([]byte, 16)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return false
	}

	first := [2]uint16{binary.LittleEndian.Uint16(buf[0:2]), binary.LittleEndian.Uint16(buf[2:4])}
	second := [2]uint16{binary.LittleEndian.Uint16(buf[8:10]), binary.LittleEndian.Uint16(buf[10:12])}
	return headerTagPairs[first] && headerTagPairs[second]
}

// structuralParse performs the metadata-only parse used as the
// authoritative mid-ladder check.
func structuralParse(path string) error {
	start := time.Now()
	defer func() {
		metrics.DetectorParseDuration.Observe(time.Since(start).Seconds())
	}()

	_, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	return err
}

// decodedFrameCount fully decodes pixel data and returns the leading
// frame dimension. Used only for the modality branch of the video
// ladder.
func decodedFrameCount(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pixel decode panic for %s: %v", path, r)
		}
	}()

	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return 0, err
	}
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return 0, err
	}
	info := dicom.MustGetPixelDataInfo(el.Value)
	return len(info.Frames), nil
}

func closeQuietly(f *os.File, path string) {
	if err := f.Close(); err != nil {
		logging.Warn("failed to close %s: %v", path, err)
	}
}
