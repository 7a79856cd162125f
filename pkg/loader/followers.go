package loader

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"devaudience/internal/workerpool"
	"devaudience/pkg/devto"
	errs "devaudience/pkg/errors"
	"devaudience/pkg/logger"
	"devaudience/pkg/models"
)

// Stages a warning can come from
const (
	StageDetail     = "detail"
	StageEnrichment = "enrichment"
)

// FollowerOptions selects the optional per-follower work
type FollowerOptions struct {
	// Extended fetches the detail profile of every follower
	Extended bool
	// Enrich looks up linked GitHub accounts; it implies Extended since the
	// handle only comes with the detail profile
	Enrich bool
}

// Warning records a per-follower failure that did not abort the load
type Warning struct {
	Username string
	Stage    string
	Err      error
}

func (w Warning) String() string {
	if w.Username == "" {
		return fmt.Sprintf("%s: %v", w.Stage, w.Err)
	}
	return fmt.Sprintf("%s %s: %v", w.Stage, w.Username, w.Err)
}

// FollowerTable is the follower table plus the warnings collected while
// building it
type FollowerTable struct {
	Followers []models.Follower
	Warnings  []Warning
}

// DegradedCount returns how many followers are degraded
func (t *FollowerTable) DegradedCount() int {
	n := 0
	for _, f := range t.Followers {
		if f.Degraded {
			n++
		}
	}
	return n
}

type followerResult struct {
	follower models.Follower
	warnings []Warning
}

// LoadFollowers drains the followers listing and optionally completes every
// record with its detail profile and GitHub enrichment. A failed detail or
// enrichment call degrades only that follower.
func (l *Loader) LoadFollowers(ctx context.Context, opts FollowerOptions) (*FollowerTable, error) {
	records, err := devto.Collect(l.client.Pages(ctx, devto.FollowersRequest(l.pageSize)), devto.Decode[devto.FollowerRecord])
	if err != nil {
		return nil, fmt.Errorf("loading followers: %w", err)
	}

	followers := make([]models.Follower, 0, len(records))
	seen := make(map[int64]bool, len(records))
	for _, rec := range records {
		id := rec.AccountID()
		if seen[id] {
			l.logger.DebugWithFields("skipping duplicate follower", map[string]interface{}{"id": id})
			continue
		}
		seen[id] = true

		f, err := toFollower(rec)
		if err != nil {
			return nil, fmt.Errorf("loading followers: %w", err)
		}
		followers = append(followers, f)
	}

	table := &FollowerTable{Followers: followers}
	if opts.Enrich {
		opts.Extended = true
	}
	if !opts.Extended || len(followers) == 0 {
		l.logger.InfoWithFields("followers loaded", map[string]interface{}{"count": len(followers)})
		return table, nil
	}

	enrich := opts.Enrich && l.enricher != nil
	logger.LogComponentStart(l.logger, "follower details", map[string]interface{}{
		"followers": len(followers),
		"enrich":    enrich,
		"workers":   l.workers,
	})

	c := &completer{loader: l, enrich: enrich, total: len(followers)}
	results, err := workerpool.Map(ctx, l.workers, followers, c.complete, l.logger)
	if err != nil {
		return nil, fmt.Errorf("loading follower details: %w", err)
	}

	for i, res := range results {
		table.Followers[i] = res.follower
		table.Warnings = append(table.Warnings, res.warnings...)
	}
	if c.authWarning != nil {
		table.Warnings = append(table.Warnings, *c.authWarning)
	}

	l.logger.InfoWithFields("followers loaded", map[string]interface{}{
		"count":    len(table.Followers),
		"degraded": table.DegradedCount(),
		"warnings": len(table.Warnings),
	})
	return table, nil
}

// completer runs the per-follower calls. An authentication failure of the
// enrichment API disables enrichment for the rest of the run.
type completer struct {
	loader      *Loader
	enrich      bool
	disabled    atomic.Bool
	authWarning *Warning
	total       int
	done        atomic.Int64
}

func (c *completer) complete(ctx context.Context, f models.Follower) followerResult {
	l := c.loader
	res := followerResult{follower: f}
	if l.progress != nil {
		defer func() { l.progress(int(c.done.Add(1)), c.total) }()
	}

	user, err := l.client.UserDetails(ctx, f.Username)
	if err == nil {
		var detailed models.Follower
		detailed, err = applyDetails(f, user)
		if err == nil {
			res.follower = detailed
		}
	}
	if err != nil {
		logger.LogDegraded(l.logger, f.Username, StageDetail, err)
		res.follower.Degraded = true
		res.warnings = append(res.warnings, Warning{Username: f.Username, Stage: StageDetail, Err: err})
		return res
	}

	handle := res.follower.GitHubUsername
	if !c.enrich || handle == nil || c.disabled.Load() {
		return res
	}

	enrichment, err := l.enricher.Enrich(ctx, *handle)
	switch {
	case errors.Is(err, errs.ErrAuthentication):
		if c.disabled.CompareAndSwap(false, true) {
			l.logger.WithError(err).Warn("enrichment disabled for this run")
			c.authWarning = &Warning{Stage: StageEnrichment, Err: err}
		}
	case err != nil:
		logger.LogDegraded(l.logger, f.Username, StageEnrichment, err)
		res.follower.Degraded = true
		res.warnings = append(res.warnings, Warning{Username: f.Username, Stage: StageEnrichment, Err: err})
	default:
		res.follower.Enrichment = enrichment
	}
	return res
}

func toFollower(rec devto.FollowerRecord) (models.Follower, error) {
	followedAt, err := devto.ParseTimestamp(rec.CreatedAt)
	if err != nil {
		return models.Follower{}, parseError(rec.Username, "created_at", err)
	}
	joinedAt, err := devto.ParseTimestamp(rec.JoinedAt)
	if err != nil {
		return models.Follower{}, parseError(rec.Username, "joined_at", err)
	}

	return models.Follower{
		ID:           rec.AccountID(),
		Username:     rec.Username,
		Name:         devto.OptionalString(rec.Name),
		ProfileImage: devto.OptionalString(rec.ProfileImage),
		JoinedAt:     joinedAt,
		FollowedAt:   followedAt,
	}, nil
}

// applyDetails returns a copy of f completed with the detail profile
func applyDetails(f models.Follower, user *devto.UserRecord) (models.Follower, error) {
	joinedAt, err := devto.ParseTimestamp(user.JoinedAt)
	if err != nil {
		return f, parseError(f.Username, "joined_at", err)
	}
	if joinedAt != nil {
		f.JoinedAt = joinedAt
	}

	if name := devto.OptionalString(user.Name); name != nil {
		f.Name = name
	}
	if image := devto.OptionalString(user.ProfileImage); image != nil {
		f.ProfileImage = image
	}
	f.Bio = devto.OptionalString(user.Summary)
	f.Location = devto.OptionalString(user.Location)
	f.GitHubUsername = devto.OptionalString(user.GitHubUsername)
	f.TwitterUsername = devto.OptionalString(user.TwitterUsername)
	f.WebsiteURL = devto.OptionalString(user.WebsiteURL)
	f.ArticlesCount = max(user.ArticlesCount, 0)
	f.CommentsCount = max(user.CommentsCount, 0)
	return f, nil
}

func parseError(username, field string, err error) error {
	return &errs.Error{
		Type:    errs.ErrorTypeParsing,
		API:     errs.APIPrimary,
		Message: fmt.Sprintf("follower %s %s", username, field),
		Err:     err,
	}
}
