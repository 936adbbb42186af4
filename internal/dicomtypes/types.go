package dicomtypes

import (
	"path/filepath"
	"strings"
)

// RecordExtensions maps file extensions that are always treated as DICOM
// records, without probing the file contents.
var RecordExtensions = map[string]bool{
	".dcm":   true,
	".dicom": true,
	".ima":   true,
	".dic":   true,
}

// RejectedExtensions maps file extensions that can never be DICOM records.
// Text, archives, office documents and common consumer media are excluded
// up front so the scanner never opens them.
var RejectedExtensions = map[string]bool{
	// Text and markup
	".txt": true, ".md": true, ".html": true, ".htm": true, ".css": true,
	".js": true, ".json": true, ".xml": true, ".csv": true, ".ini": true,
	".yml": true, ".yaml": true, ".log": true,
	// Archives
	".zip": true, ".rar": true, ".7z": true, ".tar": true, ".gz": true,
	".bz2": true, ".xz": true,
	// Office
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".odt": true,
	// Consumer images
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
	".webp": true, ".svg": true, ".ico": true, ".tiff": true, ".tif": true,
	// Consumer video and audio
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".wmv": true,
	".flv": true, ".webm": true, ".m4v": true, ".mpeg": true, ".mpg": true,
	".mp3": true, ".wav": true, ".flac": true, ".aac": true, ".ogg": true,
	// Executables and code
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".py": true, ".go": true, ".c": true, ".h": true, ".java": true,
}

// SkipDirectories maps directory base names the scanner never descends
// into: version control, caches, build output and temp trees.
var SkipDirectories = map[string]bool{
	".git":                      true,
	".svn":                      true,
	".hg":                       true,
	"__pycache__":               true,
	"node_modules":              true,
	".cache":                    true,
	"build":                     true,
	"dist":                      true,
	"target":                    true,
	"tmp":                       true,
	".tmp":                      true,
	".Trash":                    true,
	"$RECYCLE.BIN":              true,
	"System Volume Information": true,
}

// ImagingKeywords are filename fragments that suggest medical imaging
// content. Candidates whose base name contains one are probed first.
var ImagingKeywords = []string{
	"dicom", "dcm", "ima",
	"ct", "mr", "mri", "xray", "cr", "us", "ultrasound",
	"scan", "image", "img", "series", "study", "slice",
}

// VideoTransferSyntaxes maps transfer syntax UIDs that always carry video
// payloads (MPEG-2, MPEG-4 AVC, HEVC families).
var VideoTransferSyntaxes = map[string]bool{
	"1.2.840.10008.1.2.4.100": true, // MPEG2 Main Profile / Main Level
	"1.2.840.10008.1.2.4.101": true, // MPEG2 Main Profile / High Level
	"1.2.840.10008.1.2.4.102": true, // MPEG-4 AVC/H.264 High Profile
	"1.2.840.10008.1.2.4.103": true, // MPEG-4 AVC/H.264 BD-compatible
	"1.2.840.10008.1.2.4.104": true, // MPEG-4 AVC/H.264 for 2D video
	"1.2.840.10008.1.2.4.105": true, // MPEG-4 AVC/H.264 for 3D video
	"1.2.840.10008.1.2.4.106": true, // MPEG-4 AVC/H.264 stereo
	"1.2.840.10008.1.2.4.107": true, // HEVC/H.265 Main Profile
	"1.2.840.10008.1.2.4.108": true, // HEVC/H.265 Main 10 Profile
}

// VideoSOPClasses maps SOP class UIDs whose instances are video recordings.
var VideoSOPClasses = map[string]bool{
	"1.2.840.10008.5.1.4.1.1.77.1.1.1": true, // Video Endoscopic Image
	"1.2.840.10008.5.1.4.1.1.77.1.2.1": true, // Video Microscopic Image
	"1.2.840.10008.5.1.4.1.1.77.1.4":   true, // Video Photographic Image
	"1.2.840.10008.5.1.4.1.1.77.1.4.1": true, // Video Photographic Image (multi-frame)
}

// VideoModalities maps modalities that commonly produce cine loops. A file
// in one of these modalities is only classified as video after a decode
// confirms multiple frames.
var VideoModalities = map[string]bool{
	"US": true, // ultrasound
	"XA": true, // x-ray angiography
	"RF": true, // radio fluoroscopy
	"ES": true, // endoscopy
	"GM": true, // general microscopy
}

// IsRecordExtension returns true for extensions in the record whitelist.
// The extension should be lowercase and include the leading dot.
func IsRecordExtension(ext string) bool {
	return RecordExtensions[ext]
}

// IsRejectedExtension returns true for extensions in the reject blacklist.
func IsRejectedExtension(ext string) bool {
	return RejectedExtensions[ext]
}

// IsCandidateExtension returns true for extensions that neither confirm
// nor reject a file: empty, or short and unrecognized (numbered slice
// suffixes like ".001" are common for DICOM exports).
func IsCandidateExtension(ext string) bool {
	if IsRecordExtension(ext) || IsRejectedExtension(ext) {
		return false
	}
	return ext == "" || len(ext) <= 5
}

// HasImagingKeyword reports whether the file's base name contains one of
// the medical imaging keywords.
func HasImagingKeyword(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, kw := range ImagingKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// ShouldSkipDirectory reports whether the scanner must prune a directory
// with the given base name before descending into it.
func ShouldSkipDirectory(name string) bool {
	if SkipDirectories[name] {
		return true
	}
	// Hidden directories are never medical archives.
	return strings.HasPrefix(name, ".")
}
