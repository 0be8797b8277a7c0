package domain

import "time"

// Task categories that feed the engagement and content sub-scores.
// Completions in any other category are ignored by both.
var (
	engagementCategories = map[string]bool{
		"reviews":   true,
		"messaging": true,
		"qa":        true,
	}
	contentCategories = map[string]bool{
		"posts":  true,
		"photos": true,
		"videos": true,
	}
)

// ProfileWeights weighs the listing signals that make up the profile
// sub-score.
type ProfileWeights struct {
	Phone       int
	Website     int
	Hours       int
	Description int
	Photos      int
	Categories  int
}

// ScoringConfig tunes the sub-score formulas. Zero values fall back to
// the defaults, so a partially filled config is safe.
type ScoringConfig struct {
	Weights ProfileWeights
	// PhotoTarget is the photo count that satisfies the photos signal.
	PhotoTarget int
	// CategoryTarget is the category count that satisfies the categories signal.
	CategoryTarget int
	// EngagementTarget is the expected number of review or messaging
	// completions per window when there is no reply backlog.
	EngagementTarget int
	// ContentTarget is the expected number of content completions per window.
	ContentTarget int
	// Window is the trailing period completions count towards.
	Window time.Duration
}

// DefaultScoringConfig returns the standard weights and targets.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: ProfileWeights{
			Phone:       15,
			Website:     15,
			Hours:       15,
			Description: 15,
			Photos:      20,
			Categories:  20,
		},
		PhotoTarget:      5,
		CategoryTarget:   2,
		EngagementTarget: 4,
		ContentTarget:    8,
		Window:           30 * 24 * time.Hour,
	}
}

func (c ScoringConfig) normalized() ScoringConfig {
	d := DefaultScoringConfig()
	if c.Weights == (ProfileWeights{}) {
		c.Weights = d.Weights
	}
	if c.PhotoTarget <= 0 {
		c.PhotoTarget = d.PhotoTarget
	}
	if c.CategoryTarget <= 0 {
		c.CategoryTarget = d.CategoryTarget
	}
	if c.EngagementTarget <= 0 {
		c.EngagementTarget = d.EngagementTarget
	}
	if c.ContentTarget <= 0 {
		c.ContentTarget = d.ContentTarget
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	return c
}

// Scores are the three deterministic 0-100 sub-scores shown on the board.
type Scores struct {
	Profile    int
	Engagement int
	Content    int
}

// ComputeScores derives the sub-scores from the listing snapshot and the
// ledger. A nil snapshot scores like an empty listing.
func ComputeScores(snapshot *Snapshot, entries []*Entry, cfg ScoringConfig, now time.Time) Scores {
	cfg = cfg.normalized()
	if snapshot == nil {
		snapshot = &Snapshot{}
	}

	return Scores{
		Profile:    profileScore(snapshot, cfg),
		Engagement: engagementScore(snapshot, entries, cfg, now),
		Content:    contentScore(entries, cfg, now),
	}
}

// profileScore is the weighted share of satisfied listing signals.
func profileScore(snapshot *Snapshot, cfg ScoringConfig) int {
	w := cfg.Weights
	total := w.Phone + w.Website + w.Hours + w.Description + w.Photos + w.Categories
	if total <= 0 {
		return 0
	}

	satisfied := 0
	if snapshot.HasPhone {
		satisfied += w.Phone
	}
	if snapshot.HasWebsite {
		satisfied += w.Website
	}
	if snapshot.HasHours {
		satisfied += w.Hours
	}
	if snapshot.HasDescription {
		satisfied += w.Description
	}
	if snapshot.PhotoCount >= cfg.PhotoTarget {
		satisfied += w.Photos
	}
	if len(snapshot.Categories) >= cfg.CategoryTarget {
		satisfied += w.Categories
	}

	return satisfied * 100 / total
}

// engagementScore measures review and messaging completions in the window
// against the outstanding demand. No reviews at all means there is nothing
// to respond to, which counts as fully served.
func engagementScore(snapshot *Snapshot, entries []*Entry, cfg ScoringConfig, now time.Time) int {
	if snapshot.ReviewCount == 0 {
		return 100
	}

	done := countInWindow(entries, engagementCategories, cfg.Window, now)
	target := cfg.EngagementTarget
	if snapshot.UnrepliedReviews > target {
		target = snapshot.UnrepliedReviews
	}

	return boundedRatio(done, target)
}

// contentScore measures post, photo and video completions in the window
// against the target cadence.
func contentScore(entries []*Entry, cfg ScoringConfig, now time.Time) int {
	done := countInWindow(entries, contentCategories, cfg.Window, now)
	return boundedRatio(done, cfg.ContentTarget)
}

func countInWindow(entries []*Entry, categories map[string]bool, window time.Duration, now time.Time) int {
	cutoff := now.Add(-window)
	count := 0
	for _, e := range entries {
		if !categories[e.Category()] {
			continue
		}
		if e.AwardedAt().Before(cutoff) {
			continue
		}
		count++
	}
	return count
}

func boundedRatio(done, target int) int {
	if target <= 0 {
		return 0
	}
	score := done * 100 / target
	if score > 100 {
		score = 100
	}
	return score
}
