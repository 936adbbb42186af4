package dicomtypes

import "testing"

func TestExtensionPartition(t *testing.T) {
	tests := []struct {
		ext       string
		record    bool
		rejected  bool
		candidate bool
	}{
		{".dcm", true, false, false},
		{".dicom", true, false, false},
		{".ima", true, false, false},
		{".dic", true, false, false},
		{".txt", false, true, false},
		{".mp4", false, true, false},
		{".jpg", false, true, false},
		{".exe", false, true, false},
		{"", false, false, true},
		{".001", false, false, true},
		{".v2", false, false, true},
		{".dat", false, false, true},
		{".toolong", false, false, false},
	}

	for _, tt := range tests {
		name := tt.ext
		if name == "" {
			name = "(none)"
		}
		t.Run(name, func(t *testing.T) {
			if got := IsRecordExtension(tt.ext); got != tt.record {
				t.Errorf("IsRecordExtension(%q) = %v, want %v", tt.ext, got, tt.record)
			}
			if got := IsRejectedExtension(tt.ext); got != tt.rejected {
				t.Errorf("IsRejectedExtension(%q) = %v, want %v", tt.ext, got, tt.rejected)
			}
			if got := IsCandidateExtension(tt.ext); got != tt.candidate {
				t.Errorf("IsCandidateExtension(%q) = %v, want %v", tt.ext, got, tt.candidate)
			}
		})
	}
}

func TestExtensionPartitionIsExclusive(t *testing.T) {
	// No extension may be both certain and candidate, or certain and
	// rejected.
	for ext := range RecordExtensions {
		if IsRejectedExtension(ext) {
			t.Errorf("%q is both record and rejected", ext)
		}
		if IsCandidateExtension(ext) {
			t.Errorf("%q is both record and candidate", ext)
		}
	}
	for ext := range RejectedExtensions {
		if IsCandidateExtension(ext) {
			t.Errorf("%q is both rejected and candidate", ext)
		}
	}
}

func TestHasImagingKeyword(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/data/CT_HEAD_001", true},
		{"/data/patient/slice042", true},
		{"/data/MRI-brain.001", true},
		{"/data/export/IMG0001", true},
		{"/data/readme", false},
		{"/data/notes_final", false},
		{"/SCAN/other", false}, // keyword in directory, not base name
	}

	for _, tt := range tests {
		if got := HasImagingKeyword(tt.path); got != tt.want {
			t.Errorf("HasImagingKeyword(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestShouldSkipDirectory(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".git", true},
		{"node_modules", true},
		{"__pycache__", true},
		{"System Volume Information", true},
		{".hidden", true},
		{"patient-data", false},
		{"series1", false},
		{"DICOM", false},
	}

	for _, tt := range tests {
		if got := ShouldSkipDirectory(tt.name); got != tt.want {
			t.Errorf("ShouldSkipDirectory(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestVideoUIDTables(t *testing.T) {
	if !VideoTransferSyntaxes["1.2.840.10008.1.2.4.102"] {
		t.Error("expected MPEG-4 AVC transfer syntax in video set")
	}
	if VideoTransferSyntaxes["1.2.840.10008.1.2.1"] {
		t.Error("explicit VR little endian must not be a video transfer syntax")
	}
	if !VideoSOPClasses["1.2.840.10008.5.1.4.1.1.77.1.1.1"] {
		t.Error("expected video endoscopic SOP class in video set")
	}
	if !VideoModalities["US"] || VideoModalities["CT"] {
		t.Error("unexpected video modality table contents")
	}
}
