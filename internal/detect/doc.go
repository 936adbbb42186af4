// Package detect classifies files as DICOM records and records as video
// content.
//
// Record classification layers five checks, cheapest first: extension
// whitelist, file size bounds, a metadata-only structural parse, the
// "DICM" magic marker at byte offset 128, and a whitelist probe of the
// first 16 bytes as little-endian (group, element) tag pairs. Video
// classification checks transfer syntax, SOP class, frame count plus
// timing hints, and finally a decode-confirmed frame count for
// cine-capable modalities.
package detect
