// Package cache keeps the article and follower tables as Parquet snapshots.
//
// LoadOrFetch is the only entry point the pipeline needs:
//
//	articles, source, err := cache.LoadOrFetch(ctx, mgr, cache.KeyArticles, "",
//	    cache.ArticleCodec{}, func(ctx context.Context) ([]models.Article, error) {
//	        return ld.LoadArticles(ctx)
//	    })
//
// A snapshot is used when it exists, is younger than the TTL (if one is set)
// and was written for the requested variant. Snapshots are replaced
// atomically; Invalidate removes them.
package cache
