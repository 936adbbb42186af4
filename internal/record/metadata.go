package record

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Metadata holds the lightweight attributes of one record, read without
// decoding pixel data. Instances are never mutated after extraction.
type Metadata struct {
	Path              string `json:"path"`
	SeriesUID         string `json:"seriesUid"`
	SeriesDescription string `json:"seriesDescription"`
	SeriesNumber      int    `json:"seriesNumber"`
	Modality          string `json:"modality"`
	PatientName       string `json:"patientName"`
	PatientID         string `json:"patientId"`
	StudyDescription  string `json:"studyDescription"`
	StudyDate         string `json:"studyDate"`
	InstanceNumber    int    `json:"instanceNumber"`
	FrameCount        int    `json:"frameCount"`
	FrameTimeHint     bool   `json:"frameTimeHint"`
	TransferSyntax    string `json:"transferSyntax"`
	SOPClassUID       string `json:"sopClassUid"`
	Video             bool   `json:"video"`
}

// Extract reads record metadata from a file using a metadata-only parse.
// Pixel data is skipped entirely.
func Extract(path string) (Metadata, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return fromDataset(&ds, path), nil
}

// fromDataset maps dataset elements onto Metadata, substituting the
// defaults the viewer displays for absent fields.
func fromDataset(ds *dicom.Dataset, path string) Metadata {
	m := Metadata{
		Path:              path,
		SeriesUID:         stringValue(ds, tag.SeriesInstanceUID, "UID"),
		SeriesDescription: stringValue(ds, tag.SeriesDescription, "Series"),
		SeriesNumber:      intValue(ds, tag.SeriesNumber, 0),
		Modality:          stringValue(ds, tag.Modality, "Unknown"),
		PatientName:       stringValue(ds, tag.PatientName, "Unknown"),
		PatientID:         stringValue(ds, tag.PatientID, "Unknown"),
		StudyDescription:  stringValue(ds, tag.StudyDescription, "Unknown"),
		StudyDate:         stringValue(ds, tag.StudyDate, "Unknown"),
		InstanceNumber:    intValue(ds, tag.InstanceNumber, 0),
		FrameCount:        intValue(ds, tag.NumberOfFrames, 1),
		TransferSyntax:    stringValue(ds, tag.TransferSyntaxUID, ""),
		SOPClassUID:       stringValue(ds, tag.SOPClassUID, ""),
	}
	if m.FrameCount < 1 {
		m.FrameCount = 1
	}
	m.FrameTimeHint = hasElement(ds, tag.FrameTime) ||
		hasElement(ds, tag.FrameTimeVector) ||
		hasElement(ds, tag.RecommendedDisplayFrameRate)
	return m
}

// SeriesKey returns the composite bucket key for this record:
// "NNN - description (modality)" with a " [video]" suffix for cine
// content. The series number is zero-padded to three digits so keys sort
// naturally in list views.
func (m Metadata) SeriesKey() string {
	key := fmt.Sprintf("%03d - %s (%s)", m.SeriesNumber, m.SeriesDescription, m.Modality)
	if m.Video {
		key += " [video]"
	}
	return key
}

// Info formats the metadata for the information panel.
func (m Metadata) Info() string {
	kind := "image"
	if m.Video {
		kind = "video"
	}
	return fmt.Sprintf(
		"Series: %s\nSeries Number: %d\nModality: %s\nInstance: %d\nFrames: %d\nType: %s\n"+
			"Patient: %s (%s)\nStudy: %s\nDate: %s\nFile: %s",
		m.SeriesDescription, m.SeriesNumber, m.Modality, m.InstanceNumber, m.FrameCount, kind,
		m.PatientName, m.PatientID, m.StudyDescription, m.StudyDate, filepath.Base(m.Path),
	)
}

// stringValue returns the first string value of a tag, or def when the
// element is absent or not string-typed.
func stringValue(ds *dicom.Dataset, t tag.Tag, def string) string {
	el, err := ds.FindElementByTag(t)
	if err != nil || el == nil {
		return def
	}
	if ss, ok := el.Value.GetValue().([]string); ok && len(ss) > 0 {
		if s := strings.TrimSpace(ss[0]); s != "" {
			return s
		}
	}
	return def
}

// intValue returns the first integer value of a tag. Integer-string (IS)
// elements arrive as strings; unparsable values fall back to def.
func intValue(ds *dicom.Dataset, t tag.Tag, def int) int {
	el, err := ds.FindElementByTag(t)
	if err != nil || el == nil {
		return def
	}
	switch v := el.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return v[0]
		}
	case []string:
		if len(v) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(v[0])); err == nil {
				return n
			}
		}
	}
	return def
}

func hasElement(ds *dicom.Dataset, t tag.Tag) bool {
	el, err := ds.FindElementByTag(t)
	return err == nil && el != nil
}
