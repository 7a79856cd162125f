package analysis

import "devaudience/pkg/models"

// profileFields is the number of optional fields completeness is scored on
const profileFields = 4

// Completeness returns the fraction of bio, location, github and twitter that
// are set
func Completeness(f models.Follower) float64 {
	return float64(f.OptionalFieldCount()) / profileFields
}

// CompletenessBucket counts followers with a given score
type CompletenessBucket struct {
	Score float64
	Count int
}

// CompletenessDistribution returns one bucket per possible score (0, 0.25,
// 0.5, 0.75, 1) and the mean score. The mean of an empty table is 0.
func CompletenessDistribution(followers []models.Follower) ([]CompletenessBucket, float64) {
	buckets := make([]CompletenessBucket, profileFields+1)
	for i := range buckets {
		buckets[i].Score = float64(i) / profileFields
	}
	if len(followers) == 0 {
		return buckets, 0
	}

	sum := 0.0
	for _, f := range followers {
		buckets[f.OptionalFieldCount()].Count++
		sum += Completeness(f)
	}
	return buckets, sum / float64(len(followers))
}
