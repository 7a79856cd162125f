package devto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ArticleRecord is one entry of the articles listing
type ArticleRecord struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Published    bool    `json:"published"`
	PublishedAt  string  `json:"published_at"`
	TagList      TagList `json:"tag_list"`
	URL          string  `json:"url"`
	CanonicalURL string  `json:"canonical_url"`
}

// FollowerRecord is one entry of the followers listing
type FollowerRecord struct {
	TypeOf       string `json:"type_of"`
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Path         string `json:"path"`
	ProfileImage string `json:"profile_image"`
	// CreatedAt is when the follow happened
	CreatedAt string `json:"created_at"`
	JoinedAt  string `json:"joined_at"`
}

// AccountID returns user_id, falling back to id for older listings
func (r FollowerRecord) AccountID() int64 {
	if r.UserID != 0 {
		return r.UserID
	}
	return r.ID
}

// UserRecord is the detail profile returned by the by_username lookup
type UserRecord struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	Summary         string `json:"summary"`
	TwitterUsername string `json:"twitter_username"`
	GitHubUsername  string `json:"github_username"`
	WebsiteURL      string `json:"website_url"`
	Location        string `json:"location"`
	JoinedAt        string `json:"joined_at"`
	ProfileImage    string `json:"profile_image"`
	ArticlesCount   int    `json:"articles_count"`
	CommentsCount   int    `json:"comments_count"`
}

// TagList accepts both a JSON array and the comma separated string some
// endpoints return
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return err
		}
		var tags []string
		for _, tag := range strings.Split(joined, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		*t = tags
		return nil
	}

	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return fmt.Errorf("tag_list: %w", err)
	}
	*t = tags
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"Jan 2, 2006",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the API uses. An empty string
// yields nil. Results are normalized to UTC.
func ParseTimestamp(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", s)
}

// OptionalString maps the API's empty strings to nil
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
