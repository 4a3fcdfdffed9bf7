// Package imageprocessor decodes image files into ImageRecords and scores how
// similar two decoded images are regardless of 90 degree rotation.
package imageprocessor
