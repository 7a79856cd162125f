package analysis

import "devaudience/pkg/models"

// Tier is the activity class of a follower
type Tier string

const (
	TierInactive  Tier = "inactive"
	TierPassive   Tier = "passive"
	TierCommenter Tier = "commenter"
	TierAuthor    Tier = "author"
)

// Tiers lists every tier from least to most active
var Tiers = []Tier{TierInactive, TierPassive, TierCommenter, TierAuthor}

// ActivityThresholds are the minimum counters for the author and commenter
// tiers. The defaults (1 and 1) make any article an author and any comment a
// commenter.
type ActivityThresholds struct {
	MinArticles int
	MinComments int
}

// DefaultActivityThresholds returns the documented defaults
func DefaultActivityThresholds() ActivityThresholds {
	return ActivityThresholds{MinArticles: 1, MinComments: 1}
}

// Classify returns the tier of f. Author wins over commenter; passive means
// no qualifying activity but at least one optional profile field.
func Classify(f models.Follower, th ActivityThresholds) Tier {
	switch {
	case f.ArticlesCount >= max(th.MinArticles, 1):
		return TierAuthor
	case f.CommentsCount >= max(th.MinComments, 1):
		return TierCommenter
	case f.OptionalFieldCount() > 0:
		return TierPassive
	default:
		return TierInactive
	}
}

// ActivityBreakdown counts followers per tier
type ActivityBreakdown map[Tier]int

// Total returns the number of classified followers
func (b ActivityBreakdown) Total() int {
	n := 0
	for _, c := range b {
		n += c
	}
	return n
}

// Share returns the fraction of followers in tier
func (b ActivityBreakdown) Share(tier Tier) float64 {
	total := b.Total()
	if total == 0 {
		return 0
	}
	return float64(b[tier]) / float64(total)
}

// ClassifyAll returns the tier of every follower and the per-tier counts
func ClassifyAll(followers []models.Follower, th ActivityThresholds) ([]Tier, ActivityBreakdown) {
	tiers := make([]Tier, len(followers))
	breakdown := make(ActivityBreakdown, len(Tiers))
	for _, t := range Tiers {
		breakdown[t] = 0
	}
	for i, f := range followers {
		tiers[i] = Classify(f, th)
		breakdown[tiers[i]]++
	}
	return tiers, breakdown
}
