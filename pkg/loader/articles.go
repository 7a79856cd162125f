package loader

import (
	"context"
	"fmt"

	"devaudience/pkg/devto"
	errs "devaudience/pkg/errors"
	"devaudience/pkg/models"
)

// LoadArticles drains the articles listing into a table, preserving API order
func (l *Loader) LoadArticles(ctx context.Context) ([]models.Article, error) {
	records, err := devto.Collect(l.client.Pages(ctx, devto.ArticlesRequest(l.pageSize)), devto.Decode[devto.ArticleRecord])
	if err != nil {
		return nil, fmt.Errorf("loading articles: %w", err)
	}

	articles := make([]models.Article, 0, len(records))
	seen := make(map[int64]bool, len(records))
	for _, rec := range records {
		if seen[rec.ID] {
			l.logger.DebugWithFields("skipping duplicate article", map[string]interface{}{"id": rec.ID})
			continue
		}
		seen[rec.ID] = true

		article, err := toArticle(rec)
		if err != nil {
			return nil, fmt.Errorf("loading articles: %w", err)
		}
		articles = append(articles, article)
	}

	l.logger.InfoWithFields("articles loaded", map[string]interface{}{
		"count": len(articles),
	})
	return articles, nil
}

func toArticle(rec devto.ArticleRecord) (models.Article, error) {
	published, err := devto.ParseTimestamp(rec.PublishedAt)
	if err != nil {
		return models.Article{}, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			API:     errs.APIPrimary,
			Message: fmt.Sprintf("article %d published_at", rec.ID),
			Err:     err,
		}
	}

	url := rec.CanonicalURL
	if url == "" {
		url = rec.URL
	}

	var tags []string
	if len(rec.TagList) > 0 {
		tags = []string(rec.TagList)
	}

	return models.Article{
		ID:          rec.ID,
		Title:       rec.Title,
		PublishedAt: published,
		Tags:        tags,
		URL:         url,
	}, nil
}
