// Package dedupe removes the lower-resolution member of every pair of
// images whose similarity reaches the threshold.
//
// Pairs are resolved one at a time in traversal order; no transitive groups
// are formed, so A~B and B~C without A~C may keep more than one image. The
// pass is quadratic in the number of images.
package dedupe

import (
	"go.uber.org/zap"

	"imagededupe/fsutil"
	"imagededupe/logging"
	"imagededupe/types"
)

// Reasons recorded with each duplicate decision
const (
	ReasonHigherResolution = "higher_resolution"
	ReasonTieFirstSeen     = "tie_first_seen"
)

// Scorer rates the similarity of two images in [0,1]
type Scorer interface {
	Score(a, b *types.ImageRecord) float64
}

// Resolver applies a Scorer to every live pair of a batch
type Resolver struct {
	scorer    Scorer
	threshold float64
	reporter  logging.Reporter
	remove    func(path string) error
	stats     Stats
}

// Stats counts what the last Resolve call did
type Stats struct {
	Compared       int
	Removed        int
	DeleteFailures int
}

// NewResolver creates a Resolver that deletes losers from disk
func NewResolver(scorer Scorer, threshold float64, reporter logging.Reporter) *Resolver {
	return &Resolver{
		scorer:    scorer,
		threshold: threshold,
		reporter:  reporter,
		remove:    fsutil.RemoveFile,
	}
}

// Resolve compares every pair i<j of records, deletes the file of each
// duplicate loser and returns the survivors in their original order.
// A record whose file could not be deleted stays in play.
func (r *Resolver) Resolve(records []*types.ImageRecord) []*types.ImageRecord {
	r.stats = Stats{}
	tombstoned := make([]bool, len(records))

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			if tombstoned[i] {
				break
			}
			if tombstoned[j] {
				continue
			}

			score := r.scorer.Score(records[i], records[j])
			r.stats.Compared++
			if score < r.threshold {
				continue
			}

			keep, drop, reason := i, j, ReasonTieFirstSeen
			switch {
			case records[j].Resolution() > records[i].Resolution():
				keep, drop, reason = j, i, ReasonHigherResolution
			case records[i].Resolution() > records[j].Resolution():
				reason = ReasonHigherResolution
			}

			if r.discard(records[keep], records[drop], score, reason) {
				tombstoned[drop] = true
			}
		}
	}

	survivors := make([]*types.ImageRecord, 0, len(records))
	for i, rec := range records {
		if !tombstoned[i] {
			survivors = append(survivors, rec)
		}
	}
	return survivors
}

// Stats returns the counters of the last Resolve call
func (r *Resolver) Stats() Stats {
	return r.stats
}

func (r *Resolver) discard(keep, drop *types.ImageRecord, score float64, reason string) bool {
	if err := r.remove(drop.Path); err != nil {
		r.reporter.Record(logging.EventDeleteFailed,
			zap.String("path", drop.Path),
			zap.String("phase", "dedupe"),
			zap.String("kept", keep.Path),
			zap.Float64("score", score),
			zap.Error(err))
		r.stats.DeleteFailures++
		return false
	}
	r.stats.Removed++
	r.reporter.Record(logging.EventDuplicateRemoved,
		zap.String("path", drop.Path),
		zap.Int("removed_resolution", drop.Resolution()),
		zap.String("kept", keep.Path),
		zap.Int("kept_resolution", keep.Resolution()),
		zap.Float64("score", score),
		zap.String("reason", reason))
	return true
}
