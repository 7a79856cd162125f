package cache

import (
	"time"

	"devaudience/pkg/models"
)

// Timestamps are stored as UTC unix nanoseconds; text columns are zstd
// compressed.

type articleRow struct {
	ID          int64    `parquet:"id"`
	Title       string   `parquet:"title,zstd"`
	PublishedAt *int64   `parquet:"published_at,optional"`
	Tags        []string `parquet:"tags,list"`
	URL         string   `parquet:"url,zstd"`
}

type enrichmentRow struct {
	PublicRepos int64   `parquet:"public_repos"`
	Followers   int64   `parquet:"followers"`
	Following   int64   `parquet:"following"`
	CreatedAt   *int64  `parquet:"created_at,optional"`
	UpdatedAt   *int64  `parquet:"updated_at,optional"`
	Location    *string `parquet:"location,optional,zstd"`
}

type followerRow struct {
	ID              int64          `parquet:"id"`
	Username        string         `parquet:"username,zstd"`
	Name            *string        `parquet:"name,optional,zstd"`
	JoinedAt        *int64         `parquet:"joined_at,optional"`
	FollowedAt      *int64         `parquet:"followed_at,optional"`
	Bio             *string        `parquet:"bio,optional,zstd"`
	Location        *string        `parquet:"location,optional,zstd"`
	GitHubUsername  *string        `parquet:"github_username,optional,zstd"`
	TwitterUsername *string        `parquet:"twitter_username,optional,zstd"`
	WebsiteURL      *string        `parquet:"website_url,optional,zstd"`
	ProfileImage    *string        `parquet:"profile_image,optional,zstd"`
	ArticlesCount   int64          `parquet:"articles_count"`
	CommentsCount   int64          `parquet:"comments_count"`
	Enrichment      *enrichmentRow `parquet:"enrichment,optional"`
	Degraded        bool           `parquet:"degraded"`
}

// ArticleCodec maps the article table to its snapshot schema
type ArticleCodec struct{}

func (ArticleCodec) ToRows(table []models.Article) []articleRow {
	rows := make([]articleRow, len(table))
	for i, a := range table {
		rows[i] = articleRow{
			ID:          a.ID,
			Title:       a.Title,
			PublishedAt: toNanos(a.PublishedAt),
			Tags:        nonEmpty(a.Tags),
			URL:         a.URL,
		}
	}
	return rows
}

func (ArticleCodec) FromRows(rows []articleRow) []models.Article {
	table := make([]models.Article, len(rows))
	for i, r := range rows {
		table[i] = models.Article{
			ID:          r.ID,
			Title:       r.Title,
			PublishedAt: fromNanos(r.PublishedAt),
			Tags:        nonEmpty(r.Tags),
			URL:         r.URL,
		}
	}
	return table
}

// FollowerCodec maps the follower table to its snapshot schema
type FollowerCodec struct{}

func (FollowerCodec) ToRows(table []models.Follower) []followerRow {
	rows := make([]followerRow, len(table))
	for i, f := range table {
		rows[i] = followerRow{
			ID:              f.ID,
			Username:        f.Username,
			Name:            f.Name,
			JoinedAt:        toNanos(f.JoinedAt),
			FollowedAt:      toNanos(f.FollowedAt),
			Bio:             f.Bio,
			Location:        f.Location,
			GitHubUsername:  f.GitHubUsername,
			TwitterUsername: f.TwitterUsername,
			WebsiteURL:      f.WebsiteURL,
			ProfileImage:    f.ProfileImage,
			ArticlesCount:   int64(f.ArticlesCount),
			CommentsCount:   int64(f.CommentsCount),
			Degraded:        f.Degraded,
		}
		if e := f.Enrichment; e != nil {
			rows[i].Enrichment = &enrichmentRow{
				PublicRepos: int64(e.PublicRepos),
				Followers:   int64(e.Followers),
				Following:   int64(e.Following),
				CreatedAt:   toNanos(e.CreatedAt),
				UpdatedAt:   toNanos(e.UpdatedAt),
				Location:    e.Location,
			}
		}
	}
	return rows
}

func (FollowerCodec) FromRows(rows []followerRow) []models.Follower {
	table := make([]models.Follower, len(rows))
	for i, r := range rows {
		table[i] = models.Follower{
			ID:              r.ID,
			Username:        r.Username,
			Name:            r.Name,
			JoinedAt:        fromNanos(r.JoinedAt),
			FollowedAt:      fromNanos(r.FollowedAt),
			Bio:             r.Bio,
			Location:        r.Location,
			GitHubUsername:  r.GitHubUsername,
			TwitterUsername: r.TwitterUsername,
			WebsiteURL:      r.WebsiteURL,
			ProfileImage:    r.ProfileImage,
			ArticlesCount:   int(r.ArticlesCount),
			CommentsCount:   int(r.CommentsCount),
			Degraded:        r.Degraded,
		}
		if e := r.Enrichment; e != nil {
			table[i].Enrichment = &models.Enrichment{
				PublicRepos: int(e.PublicRepos),
				Followers:   int(e.Followers),
				Following:   int(e.Following),
				CreatedAt:   fromNanos(e.CreatedAt),
				UpdatedAt:   fromNanos(e.UpdatedAt),
				Location:    e.Location,
			}
		}
	}
	return table
}

func toNanos(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := t.UTC().UnixNano()
	return &n
}

func fromNanos(n *int64) *time.Time {
	if n == nil {
		return nil
	}
	t := time.Unix(0, *n).UTC()
	return &t
}

func nonEmpty(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	return tags
}
