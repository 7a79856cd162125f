package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devaudience/pkg/config"
	"devaudience/pkg/models"
)

func ptr[T any](v T) *T { return &v }

// at returns noon UTC of the given day of January 2024, or later months for
// days past 31
func at(day int) *time.Time {
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, day-1)
	return &t
}

func article(id int64, day int) models.Article {
	return models.Article{ID: id, Title: "a", PublishedAt: at(day)}
}

func followedOn(id int64, day int) models.Follower {
	return models.Follower{ID: id, Username: "u", FollowedAt: at(day)}
}

func TestClassify(t *testing.T) {
	th := DefaultActivityThresholds()
	tests := []struct {
		name string
		f    models.Follower
		want Tier
	}{
		{"author", models.Follower{ArticlesCount: 1}, TierAuthor},
		{"author with comments", models.Follower{ArticlesCount: 2, CommentsCount: 9}, TierAuthor},
		{"commenter", models.Follower{CommentsCount: 1}, TierCommenter},
		{"passive", models.Follower{Location: ptr("Oslo")}, TierPassive},
		{"inactive", models.Follower{Name: ptr("only a name")}, TierInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.f, th))
		})
	}
}

func TestClassifyThresholds(t *testing.T) {
	th := ActivityThresholds{MinArticles: 5, MinComments: 10}

	assert.Equal(t, TierCommenter, Classify(models.Follower{ArticlesCount: 4, CommentsCount: 10}, th))
	assert.Equal(t, TierAuthor, Classify(models.Follower{ArticlesCount: 5}, th))
	assert.Equal(t, TierInactive, Classify(models.Follower{ArticlesCount: 4, CommentsCount: 9}, th))
	assert.Equal(t, TierAuthor, Classify(models.Follower{ArticlesCount: 1}, ActivityThresholds{}), "zero thresholds behave like 1")
}

func TestClassifyAllPartitions(t *testing.T) {
	var followers []models.Follower
	for articles := 0; articles < 3; articles++ {
		for comments := 0; comments < 3; comments++ {
			for _, bio := range []*string{nil, ptr("bio")} {
				followers = append(followers, models.Follower{ArticlesCount: articles, CommentsCount: comments, Bio: bio})
			}
		}
	}

	tiers, breakdown := ClassifyAll(followers, DefaultActivityThresholds())

	require.Len(t, tiers, len(followers))
	assert.Equal(t, len(followers), breakdown.Total())
	assert.Equal(t, 12, breakdown[TierAuthor])
	assert.Equal(t, 4, breakdown[TierCommenter])
	assert.Equal(t, 1, breakdown[TierPassive])
	assert.Equal(t, 1, breakdown[TierInactive])
	assert.InDelta(t, 12.0/18.0, breakdown.Share(TierAuthor), 1e-9)
	assert.Zero(t, ActivityBreakdown{}.Share(TierAuthor))
}

func TestCompleteness(t *testing.T) {
	assert.Equal(t, 0.0, Completeness(models.Follower{Name: ptr("n"), WebsiteURL: ptr("w")}))
	assert.Equal(t, 0.5, Completeness(models.Follower{Bio: ptr("b"), TwitterUsername: ptr("t")}))
	assert.Equal(t, 1.0, Completeness(models.Follower{
		Bio: ptr("b"), Location: ptr("l"), GitHubUsername: ptr("g"), TwitterUsername: ptr("t"),
	}))
}

func TestCompletenessDistribution(t *testing.T) {
	followers := []models.Follower{
		{},
		{Bio: ptr("b")},
		{Bio: ptr("b"), Location: ptr("l"), GitHubUsername: ptr("g"), TwitterUsername: ptr("t")},
		{},
	}

	buckets, mean := CompletenessDistribution(followers)

	require.Len(t, buckets, 5)
	assert.Equal(t, CompletenessBucket{Score: 0, Count: 2}, buckets[0])
	assert.Equal(t, CompletenessBucket{Score: 0.25, Count: 1}, buckets[1])
	assert.Equal(t, CompletenessBucket{Score: 1, Count: 1}, buckets[4])
	assert.InDelta(t, 1.25/4, mean, 1e-9)

	_, mean = CompletenessDistribution(nil)
	assert.Zero(t, mean)
}

func TestEngagementWindowScenario(t *testing.T) {
	articles := []models.Article{article(1, 1), article(2, 10), article(3, 20)}
	followers := []models.Follower{
		followedOn(1, 2), followedOn(2, 2),
		followedOn(3, 12), followedOn(4, 12),
		followedOn(5, 25),
	}

	gains := EngagementWindow(articles, followers, 14)

	require.Len(t, gains, 3)
	assert.Equal(t, []int{2, 2, 1}, []int{gains[0].Attributed, gains[1].Attributed, gains[2].Attributed})
	assert.Equal(t, []int{4, 2, 1}, []int{gains[0].InWindow, gains[1].InWindow, gains[2].InWindow})
}

func TestEngagementWindowBoundary(t *testing.T) {
	articles := []models.Article{article(1, 1)}

	gains := EngagementWindow(articles, []models.Follower{followedOn(1, 15)}, 14)
	assert.Equal(t, 1, gains[0].Attributed, "D+14 is inside the window")

	gains = EngagementWindow(articles, []models.Follower{followedOn(1, 16)}, 14)
	assert.Equal(t, 0, gains[0].Attributed, "D+15 is outside the window")

	gains = EngagementWindow(articles, []models.Follower{followedOn(1, 1)}, 0)
	assert.Equal(t, 1, gains[0].Attributed, "same day counts with a zero window")
}

func TestEngagementWindowUsesCalendarDays(t *testing.T) {
	published := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	followed := time.Date(2024, 3, 15, 0, 1, 0, 0, time.UTC)

	gains := EngagementWindow(
		[]models.Article{{ID: 1, PublishedAt: &published}},
		[]models.Follower{{ID: 1, FollowedAt: &followed}},
		14,
	)

	assert.Equal(t, 1, gains[0].Attributed)
}

func TestEngagementWindowIgnoresArticlesPublishedAfterFollow(t *testing.T) {
	first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	second := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	followed := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	gains := EngagementWindow(
		[]models.Article{{ID: 1, PublishedAt: &first}, {ID: 2, PublishedAt: &second}},
		[]models.Follower{{ID: 1, FollowedAt: &followed}},
		14,
	)

	require.Len(t, gains, 2)
	assert.Equal(t, 1, gains[0].Attributed, "credited to the article live at follow time")
	assert.Equal(t, 1, gains[0].InWindow)
	assert.Equal(t, 0, gains[1].Attributed, "same-day article published later gets nothing")
	assert.Equal(t, 0, gains[1].InWindow)
}

func TestEngagementWindowSkipsDraftsAndUnknownDates(t *testing.T) {
	articles := []models.Article{article(2, 10), {ID: 9, Title: "draft"}, article(1, 1)}
	followers := []models.Follower{followedOn(1, 3), {ID: 2}, followedOn(3, 0)}

	gains := EngagementWindow(articles, followers, 14)

	require.Len(t, gains, 2)
	assert.Equal(t, int64(1), gains[0].ArticleID, "ordered by publish date")
	assert.Equal(t, int64(2), gains[1].ArticleID)
	assert.Equal(t, 1, gains[0].Attributed)
	assert.Equal(t, 0, gains[1].Attributed, "followers before the first article are ignored")
}

func TestDailyFollowerSeries(t *testing.T) {
	followers := []models.Follower{followedOn(1, 5), followedOn(2, 2), followedOn(3, 5), {ID: 4}, followedOn(5, 3)}

	series := DailyFollowerSeries(followers)

	require.Len(t, series, 4)
	wantNew := []int{1, 1, 0, 2}
	wantCum := []int{1, 2, 2, 4}
	for i, p := range series {
		assert.Equal(t, time.Date(2024, 1, 2+i, 0, 0, 0, 0, time.UTC), p.Date)
		assert.Equal(t, wantNew[i], p.New, "day %d", i)
		assert.Equal(t, wantCum[i], p.Cumulative, "day %d", i)
	}

	assert.Nil(t, DailyFollowerSeries([]models.Follower{{ID: 1}}))
}

func TestDayNumberBeforeEpoch(t *testing.T) {
	assert.Equal(t, int64(-1), dayNumber(time.Date(1969, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(0), dayNumber(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func suspect() models.Follower {
	joined := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	followed := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	return models.Follower{ID: 1, Username: "bot", JoinedAt: &joined, FollowedAt: &followed}
}

func TestBotHeuristic(t *testing.T) {
	h, th := DefaultBotHeuristic(), DefaultActivityThresholds()

	assert.True(t, IsSuspicious(suspect(), h, th))

	nextDay := suspect()
	later := nextDay.FollowedAt.AddDate(0, 0, 1)
	nextDay.FollowedAt = &later
	assert.False(t, IsSuspicious(nextDay, h, th), "different day")

	withProfile := suspect()
	withProfile.Bio = ptr("hello")
	assert.False(t, IsSuspicious(withProfile, h, th), "profile field present")

	active := suspect()
	active.CommentsCount = 1
	assert.False(t, IsSuspicious(active, h, th), "has activity")

	noDates := suspect()
	noDates.JoinedAt = nil
	assert.False(t, IsSuspicious(noDates, h, th), "unknown join date")

	degraded := suspect()
	degraded.Degraded = true
	assert.False(t, IsSuspicious(degraded, h, th), "degraded records are never flagged")
}

func TestBotHeuristicThresholds(t *testing.T) {
	f := suspect()
	later := f.FollowedAt.AddDate(0, 0, 2)
	f.FollowedAt = &later

	assert.False(t, IsSuspicious(f, BotHeuristic{MaxJoinFollowGapDays: 1}, DefaultActivityThresholds()))
	assert.True(t, IsSuspicious(f, BotHeuristic{MaxJoinFollowGapDays: 2}, DefaultActivityThresholds()))

	flagged := FlagSuspicious([]models.Follower{suspect(), f}, BotHeuristic{MaxJoinFollowGapDays: 2}, DefaultActivityThresholds())
	require.Len(t, flagged, 2)
	assert.Equal(t, 0, flagged[0].GapDays)
	assert.Equal(t, 2, flagged[1].GapDays)
}

func TestSummarize(t *testing.T) {
	articles := []models.Article{
		{ID: 1, PublishedAt: at(1), Tags: []string{"go", "cli"}},
		{ID: 2, PublishedAt: at(10), Tags: []string{"go"}},
		{ID: 3, Tags: []string{"draft"}},
	}
	followers := []models.Follower{
		suspect(),
		{ID: 2, FollowedAt: at(2), ArticlesCount: 1, GitHubUsername: ptr("g"), Enrichment: &models.Enrichment{PublicRepos: 3}},
		{ID: 3, Degraded: true},
	}

	r := Summarize(articles, followers, DefaultParams())

	assert.Equal(t, 3, r.Articles)
	assert.Equal(t, 2, r.Published)
	assert.Equal(t, []TagCount{{"go", 2}, {"cli", 1}, {"draft", 1}}, r.Tags)
	assert.Equal(t, 3, r.Followers)
	assert.Equal(t, 1, r.Degraded)
	assert.Equal(t, 1, r.Enriched)
	assert.Equal(t, 2, r.WithFollowDate)
	assert.Equal(t, 1, r.Activity[TierAuthor])
	assert.Equal(t, 2, r.Activity[TierInactive])
	require.Len(t, r.Engagement, 2)
	assert.Equal(t, 1, r.Engagement[0].Attributed)
	require.Len(t, r.Suspicious, 1)
	assert.Equal(t, "bot", r.Suspicious[0].Username)
	assert.NotEmpty(t, r.Daily)
}

func TestParamsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Analysis
	assert.Equal(t, DefaultParams(), ParamsFromConfig(cfg))

	cfg.WindowDays = 7
	cfg.Bot.MaxCompleteness = 0.25
	p := ParamsFromConfig(cfg)
	assert.Equal(t, 7, p.WindowDays)
	assert.Equal(t, 0.25, p.Bot.MaxCompleteness)
}
