// Package cleaner strips embedded metadata from files using external tools.
//
// exiftool handles every format it can rewrite; qpdf serves as a fallback for
// PDFs whose structure exiftool refuses to touch. Cleaning is strictly
// in-place and failure leaves the original file unmodified.
package cleaner
