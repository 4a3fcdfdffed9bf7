package types

import (
	"image"
	"time"
)

// ImageRecord holds a decoded image and the file it was read from
type ImageRecord struct {
	Path      string
	Pixels    image.Image
	Width     int
	Height    int
	Extension string // lower case, no leading dot
}

// Resolution is the pixel count used as the quality proxy for duplicates
func (r *ImageRecord) Resolution() int {
	return r.Width * r.Height
}

// RunSummary collects the counters of one run
type RunSummary struct {
	Directory      string    `json:"directory"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Found          int       `json:"found"`
	Decoded        int       `json:"decoded"`
	DecodeFailures int       `json:"decode_failures"`
	Removed        int       `json:"removed"`
	DeleteFailures int       `json:"delete_failures"`
	Renamed        int       `json:"renamed"`
	RenameFailures int       `json:"rename_failures"`
	Repaired       int       `json:"repaired"`
	RepairFailures int       `json:"repair_failures"`
}
