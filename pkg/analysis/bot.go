package analysis

import "devaudience/pkg/models"

// BotHeuristic holds the thresholds of the bot-likelihood flag.
//
// The flag is advisory. It marks accounts that look like throwaway
// followers, it does not establish that an account is automated.
type BotHeuristic struct {
	// MaxJoinFollowGapDays is the largest number of UTC days between joining
	// the platform and following; 0 means the same day
	MaxJoinFollowGapDays int
	// MaxCompleteness is the highest profile completeness still flagged
	MaxCompleteness float64
}

// DefaultBotHeuristic flags same-day followers with an empty profile
func DefaultBotHeuristic() BotHeuristic {
	return BotHeuristic{MaxJoinFollowGapDays: 0, MaxCompleteness: 0}
}

// SuspiciousFollower is a follower flagged by the heuristic
type SuspiciousFollower struct {
	ID       int64
	Username string
	GapDays  int
}

// IsSuspicious reports whether f is flagged: joined and followed within the
// gap, completeness at most MaxCompleteness and tier inactive. Degraded
// records are never flagged since their profile is unknown.
func IsSuspicious(f models.Follower, h BotHeuristic, th ActivityThresholds) bool {
	_, ok := joinFollowGap(f, h)
	return ok &&
		!f.Degraded &&
		Completeness(f) <= h.MaxCompleteness &&
		Classify(f, th) == TierInactive
}

// FlagSuspicious returns the flagged followers in table order
func FlagSuspicious(followers []models.Follower, h BotHeuristic, th ActivityThresholds) []SuspiciousFollower {
	var flagged []SuspiciousFollower
	for _, f := range followers {
		if !IsSuspicious(f, h, th) {
			continue
		}
		gap, _ := joinFollowGap(f, h)
		flagged = append(flagged, SuspiciousFollower{ID: f.ID, Username: f.Username, GapDays: gap})
	}
	return flagged
}

func joinFollowGap(f models.Follower, h BotHeuristic) (int, bool) {
	if f.JoinedAt == nil || f.FollowedAt == nil {
		return 0, false
	}
	gap := int(dayNumber(*f.FollowedAt) - dayNumber(*f.JoinedAt))
	return gap, gap >= 0 && gap <= h.MaxJoinFollowGapDays
}
