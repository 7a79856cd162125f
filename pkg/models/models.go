// Package models holds the two tables the pipeline produces: articles and
// followers. Values are treated as immutable once a loader returns them.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Article is one post of the authenticated account
type Article struct {
	ID    int64
	Title string
	// PublishedAt is nil for drafts
	PublishedAt *time.Time
	Tags        []string
	URL         string
}

// Follower is one account following the authenticated account
type Follower struct {
	ID       int64
	Username string
	Name     *string

	// JoinedAt is when the account was created on the platform
	JoinedAt *time.Time
	// FollowedAt is when the account started following; nil when the API tier
	// does not expose it
	FollowedAt *time.Time

	Bio             *string
	Location        *string
	GitHubUsername  *string
	TwitterUsername *string
	WebsiteURL      *string
	ProfileImage    *string

	ArticlesCount int
	CommentsCount int

	// Enrichment is only set for followers with a GitHub handle whose lookup
	// succeeded
	Enrichment *Enrichment

	// Degraded marks a record whose detail fetch failed
	Degraded bool
}

// Enrichment is the public GitHub activity of a follower's linked account
type Enrichment struct {
	PublicRepos int
	Followers   int
	Following   int
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
	Location    *string
}

// OptionalFieldCount returns how many of bio, location, github and twitter are set
func (f *Follower) OptionalFieldCount() int {
	n := 0
	for _, v := range []*string{f.Bio, f.Location, f.GitHubUsername, f.TwitterUsername} {
		if v != nil {
			n++
		}
	}
	return n
}

// ValidateArticles checks that article identifiers are unique
func ValidateArticles(articles []Article) error {
	var errs []error
	seen := make(map[int64]int, len(articles))
	for i, a := range articles {
		if prev, ok := seen[a.ID]; ok {
			errs = append(errs, fmt.Errorf("article %d: duplicate id (rows %d and %d)", a.ID, prev, i))
			continue
		}
		seen[a.ID] = i
	}
	return errors.Join(errs...)
}

// ValidateFollowers checks the follower table invariants and reports every
// violation
func ValidateFollowers(followers []Follower) error {
	var errs []error
	seen := make(map[int64]int, len(followers))
	for i, f := range followers {
		if prev, ok := seen[f.ID]; ok {
			errs = append(errs, fmt.Errorf("follower %d: duplicate id (rows %d and %d)", f.ID, prev, i))
		} else {
			seen[f.ID] = i
		}
		if f.ArticlesCount < 0 || f.CommentsCount < 0 {
			errs = append(errs, fmt.Errorf("follower %s: negative activity counter", f.Username))
		}
		if f.JoinedAt != nil && f.FollowedAt != nil && f.JoinedAt.After(*f.FollowedAt) {
			errs = append(errs, fmt.Errorf("follower %s: joined after following", f.Username))
		}
		if f.Enrichment != nil && f.GitHubUsername == nil {
			errs = append(errs, fmt.Errorf("follower %s: enrichment without github handle", f.Username))
		}
	}
	return errors.Join(errs...)
}
