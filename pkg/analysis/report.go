package analysis

import (
	"sort"

	"devaudience/pkg/config"
	"devaudience/pkg/models"
)

// Params are the configurable inputs of Summarize
type Params struct {
	WindowDays int
	Activity   ActivityThresholds
	Bot        BotHeuristic
}

// DefaultParams returns the documented defaults
func DefaultParams() Params {
	return Params{
		WindowDays: DefaultWindowDays,
		Activity:   DefaultActivityThresholds(),
		Bot:        DefaultBotHeuristic(),
	}
}

// ParamsFromConfig reads the analysis section of the configuration
func ParamsFromConfig(cfg config.AnalysisConfig) Params {
	return Params{
		WindowDays: cfg.WindowDays,
		Activity: ActivityThresholds{
			MinArticles: cfg.Activity.MinArticles,
			MinComments: cfg.Activity.MinComments,
		},
		Bot: BotHeuristic{
			MaxJoinFollowGapDays: cfg.Bot.MaxJoinFollowGapDays,
			MaxCompleteness:      cfg.Bot.MaxCompleteness,
		},
	}
}

// TagCount is how many articles carry a tag
type TagCount struct {
	Tag   string
	Count int
}

// Report bundles every analysis of one run
type Report struct {
	Params Params

	Articles  int
	Published int
	Tags      []TagCount

	Followers int
	Degraded  int
	Enriched  int
	// WithFollowDate counts followers whose followed_at is known
	WithFollowDate int

	Activity         ActivityBreakdown
	Completeness     []CompletenessBucket
	MeanCompleteness float64
	Engagement       []ArticleGain
	Daily            []DailyPoint
	Suspicious       []SuspiciousFollower
}

// Summarize runs every analysis over the two tables
func Summarize(articles []models.Article, followers []models.Follower, p Params) Report {
	r := Report{
		Params:    p,
		Articles:  len(articles),
		Followers: len(followers),
	}

	for _, a := range articles {
		if a.PublishedAt != nil {
			r.Published++
		}
	}
	r.Tags = CountTags(articles)

	for _, f := range followers {
		if f.Degraded {
			r.Degraded++
		}
		if f.Enrichment != nil {
			r.Enriched++
		}
		if f.FollowedAt != nil {
			r.WithFollowDate++
		}
	}

	_, r.Activity = ClassifyAll(followers, p.Activity)
	r.Completeness, r.MeanCompleteness = CompletenessDistribution(followers)
	r.Engagement = EngagementWindow(articles, followers, p.WindowDays)
	r.Daily = DailyFollowerSeries(followers)
	r.Suspicious = FlagSuspicious(followers, p.Bot, p.Activity)
	return r
}

// CountTags returns tag usage over all articles, most used first and ties
// in alphabetical order
func CountTags(articles []models.Article) []TagCount {
	counts := make(map[string]int)
	for _, a := range articles {
		for _, t := range a.Tags {
			counts[t]++
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for t, c := range counts {
		tags = append(tags, TagCount{Tag: t, Count: c})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	return tags
}
