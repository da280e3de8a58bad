// Package dataset downloads and extracts the zip archives declared in the
// project file.
//
// A dataset whose member files all exist locally is skipped without any
// network traffic, archives are integrity-checked before extraction, and
// only the declared members are extracted.
package dataset
