package analysis

import (
	"sort"
	"time"

	"devaudience/pkg/models"
)

// DefaultWindowDays is the default engagement window
const DefaultWindowDays = 14

// ArticleGain is the follower gain attributed to one published article
type ArticleGain struct {
	ArticleID   int64
	Title       string
	PublishedAt time.Time
	// Attributed counts followers whose most recent preceding article is
	// this one, within the window. Each follower counts for at most one
	// article.
	Attributed int
	// InWindow counts every follower within the window of this article,
	// whether or not a later article is closer.
	InWindow int
}

// EngagementWindow builds the per-article gain table, ordered by publish
// date. A follower counts for the articles published at or before its
// followed_at whose UTC calendar day D satisfies 0 <= F-D <= windowDays,
// where F is the follow day. Drafts and followers without followed_at are
// ignored.
func EngagementWindow(articles []models.Article, followers []models.Follower, windowDays int) []ArticleGain {
	published := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if a.PublishedAt != nil {
			published = append(published, a)
		}
	}
	sort.SliceStable(published, func(i, j int) bool {
		return published[i].PublishedAt.Before(*published[j].PublishedAt)
	})

	gains := make([]ArticleGain, len(published))
	days := make([]int64, len(published))
	for i, a := range published {
		gains[i] = ArticleGain{
			ArticleID:   a.ID,
			Title:       a.Title,
			PublishedAt: a.PublishedAt.UTC(),
		}
		days[i] = dayNumber(*a.PublishedAt)
	}

	for _, f := range followers {
		if f.FollowedAt == nil {
			continue
		}
		followedAt := *f.FollowedAt
		followed := dayNumber(followedAt)

		// index of the last article live when the follow happened
		last := sort.Search(len(published), func(i int) bool {
			return published[i].PublishedAt.After(followedAt)
		}) - 1
		if last < 0 {
			continue
		}
		if followed-days[last] <= int64(windowDays) {
			gains[last].Attributed++
		}
		for i := last; i >= 0 && followed-days[i] <= int64(windowDays); i-- {
			gains[i].InWindow++
		}
	}
	return gains
}

// DailyPoint is the number of new followers on one UTC day
type DailyPoint struct {
	Date       time.Time
	New        int
	Cumulative int
}

// DailyFollowerSeries returns a contiguous per-day series from the first to
// the last follow day, with days without follows included as zero.
func DailyFollowerSeries(followers []models.Follower) []DailyPoint {
	counts := make(map[int64]int)
	first, last := int64(0), int64(0)
	seen := false
	for _, f := range followers {
		if f.FollowedAt == nil {
			continue
		}
		d := dayNumber(*f.FollowedAt)
		counts[d]++
		if !seen || d < first {
			first = d
		}
		if !seen || d > last {
			last = d
		}
		seen = true
	}
	if !seen {
		return nil
	}

	series := make([]DailyPoint, 0, last-first+1)
	total := 0
	for d := first; d <= last; d++ {
		total += counts[d]
		series = append(series, DailyPoint{
			Date:       dayStart(d),
			New:        counts[d],
			Cumulative: total,
		})
	}
	return series
}

const secondsPerDay = 24 * 60 * 60

// dayNumber returns the number of UTC days since the unix epoch
func dayNumber(t time.Time) int64 {
	s := t.Unix()
	d := s / secondsPerDay
	if s%secondsPerDay < 0 {
		d--
	}
	return d
}

func dayStart(d int64) time.Time {
	return time.Unix(d*secondsPerDay, 0).UTC()
}
