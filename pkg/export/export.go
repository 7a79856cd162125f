// Package export writes the article and follower tables, plus the derived
// analysis, to a SQLite database for ad-hoc queries and notebooks.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"devaudience/pkg/analysis"
	"devaudience/pkg/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS articles (
		id           INTEGER PRIMARY KEY,
		title        TEXT NOT NULL,
		published_at TEXT,
		tags         TEXT NOT NULL DEFAULT '',
		url          TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS article_tags (
		article_id INTEGER NOT NULL REFERENCES articles(id),
		tag        TEXT NOT NULL,
		PRIMARY KEY (article_id, tag)
	);
	CREATE TABLE IF NOT EXISTS followers (
		id               INTEGER PRIMARY KEY,
		username         TEXT NOT NULL,
		name             TEXT,
		joined_at        TEXT,
		followed_at      TEXT,
		bio              TEXT,
		location         TEXT,
		github_username  TEXT,
		twitter_username TEXT,
		website_url      TEXT,
		profile_image    TEXT,
		articles_count   INTEGER NOT NULL,
		comments_count   INTEGER NOT NULL,
		degraded         INTEGER NOT NULL,
		tier             TEXT NOT NULL,
		completeness     REAL NOT NULL,
		suspicious       INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_followers_followed_at ON followers(followed_at);
	CREATE TABLE IF NOT EXISTS enrichments (
		follower_id  INTEGER PRIMARY KEY REFERENCES followers(id),
		public_repos INTEGER NOT NULL,
		followers    INTEGER NOT NULL,
		following    INTEGER NOT NULL,
		created_at   TEXT,
		updated_at   TEXT,
		location     TEXT
	);
	CREATE TABLE IF NOT EXISTS engagement (
		article_id INTEGER PRIMARY KEY REFERENCES articles(id),
		attributed INTEGER NOT NULL,
		in_window  INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS daily_followers (
		date       TEXT PRIMARY KEY,
		new        INTEGER NOT NULL,
		cumulative INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
`

// tables lists every data table, in deletion order
var tables = []string{"article_tags", "engagement", "enrichments", "daily_followers", "followers", "articles"}

// Store is an export database
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening export db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Write replaces the content of every table with the given run in a single
// transaction
func (s *Store) Write(ctx context.Context, articles []models.Article, followers []models.Follower, report analysis.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := insertArticles(ctx, tx, articles); err != nil {
		return err
	}
	if err := insertFollowers(ctx, tx, followers, report.Params); err != nil {
		return err
	}
	if err := insertAnalysis(ctx, tx, report); err != nil {
		return err
	}

	meta := map[string]string{
		"exported_at": s.now().UTC().Format(time.RFC3339),
		"window_days": fmt.Sprint(report.Params.WindowDays),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return fmt.Errorf("writing meta %s: %w", k, err)
		}
	}

	return tx.Commit()
}

func insertArticles(ctx context.Context, tx *sql.Tx, articles []models.Article) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (id, title, published_at, tags, url)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	tagStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO article_tags (article_id, tag) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer tagStmt.Close()

	for _, a := range articles {
		if _, err := stmt.ExecContext(ctx, a.ID, a.Title, timestamp(a.PublishedAt), strings.Join(a.Tags, ","), a.URL); err != nil {
			return fmt.Errorf("inserting article %d: %w", a.ID, err)
		}
		for _, tag := range a.Tags {
			if _, err := tagStmt.ExecContext(ctx, a.ID, tag); err != nil {
				return fmt.Errorf("inserting tag %q of article %d: %w", tag, a.ID, err)
			}
		}
	}
	return nil
}

func insertFollowers(ctx context.Context, tx *sql.Tx, followers []models.Follower, p analysis.Params) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO followers (
			id, username, name, joined_at, followed_at, bio, location,
			github_username, twitter_username, website_url, profile_image,
			articles_count, comments_count, degraded, tier, completeness, suspicious
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	enrichStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO enrichments (follower_id, public_repos, followers, following, created_at, updated_at, location)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer enrichStmt.Close()

	for _, f := range followers {
		_, err := stmt.ExecContext(ctx,
			f.ID, f.Username, text(f.Name), timestamp(f.JoinedAt), timestamp(f.FollowedAt), text(f.Bio), text(f.Location),
			text(f.GitHubUsername), text(f.TwitterUsername), text(f.WebsiteURL), text(f.ProfileImage),
			f.ArticlesCount, f.CommentsCount, f.Degraded,
			string(analysis.Classify(f, p.Activity)), analysis.Completeness(f),
			analysis.IsSuspicious(f, p.Bot, p.Activity),
		)
		if err != nil {
			return fmt.Errorf("inserting follower %d: %w", f.ID, err)
		}

		if e := f.Enrichment; e != nil {
			if _, err := enrichStmt.ExecContext(ctx, f.ID, e.PublicRepos, e.Followers, e.Following, timestamp(e.CreatedAt), timestamp(e.UpdatedAt), text(e.Location)); err != nil {
				return fmt.Errorf("inserting enrichment of follower %d: %w", f.ID, err)
			}
		}
	}
	return nil
}

func insertAnalysis(ctx context.Context, tx *sql.Tx, r analysis.Report) error {
	for _, g := range r.Engagement {
		if _, err := tx.ExecContext(ctx, `INSERT INTO engagement (article_id, attributed, in_window) VALUES (?, ?, ?)`,
			g.ArticleID, g.Attributed, g.InWindow); err != nil {
			return fmt.Errorf("inserting engagement of article %d: %w", g.ArticleID, err)
		}
	}
	for _, d := range r.Daily {
		if _, err := tx.ExecContext(ctx, `INSERT INTO daily_followers (date, new, cumulative) VALUES (?, ?, ?)`,
			d.Date.Format("2006-01-02"), d.New, d.Cumulative); err != nil {
			return fmt.Errorf("inserting daily point %s: %w", d.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// timestamp formats t as RFC 3339 in UTC, or NULL
func timestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func text(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
