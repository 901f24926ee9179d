// Package metadata extracts embedded metadata from files via exiftool.
//
// The Record type is a flat field-to-value mapping; the ExifTool extractor
// shells out to exiftool's JSON mode, flattens the values to strings, and
// filters out filesystem bookkeeping fields that every file reports. Files in
// formats exiftool cannot read fail soft to an empty record so the pipeline
// keeps moving.
package metadata
