package pipeline

import (
	"context"
	"errors"
	"fmt"

	"devaudience/pkg/analysis"
	"devaudience/pkg/auth"
	"devaudience/pkg/cache"
	"devaudience/pkg/config"
	"devaudience/pkg/devto"
	errs "devaudience/pkg/errors"
	"devaudience/pkg/github"
	"devaudience/pkg/loader"
	"devaudience/pkg/logger"
	"devaudience/pkg/models"
)

// StageValidation marks warnings about records that break a table invariant
const StageValidation = "validation"

// Follower snapshot variants. A snapshot is only reused for the same
// variant, so a basic listing never answers an extended request.
const (
	VariantBasic    = "basic"
	VariantExtended = "extended"
	VariantEnriched = "enriched"
)

// Options configures a run
type Options struct {
	Config *config.Config
	// Followers selects the follower detail level
	Followers loader.FollowerOptions
	// Refresh drops both snapshots before loading
	Refresh bool
	// Credentials fills credentials missing from Config; nil skips the lookup
	Credentials *auth.Manager
	// Progress receives follower detail progress
	Progress func(done, total int)
	Logger   logger.Logger

	// Client, Enricher and Cache replace the ones built from Config when set
	Client   loader.PrimaryClient
	Enricher loader.Enricher
	Cache    *cache.Manager
}

// Result is the outcome of a run
type Result struct {
	Articles  []models.Article
	Followers []models.Follower
	Warnings  []loader.Warning
	Report    analysis.Report
	// Sources tells whether each table came from the cache or the API
	Sources map[cache.Key]cache.Source
	// Variant is the follower snapshot variant used
	Variant string
}

// Run loads both tables through the cache and analyses them. An
// authentication failure of the primary API is fatal. Cache write failures
// are joined into the returned error alongside a complete Result.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("pipeline: config is required")
	}
	cfg := *opts.Config

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("component", "pipeline")

	if opts.Credentials != nil {
		for name, source := range opts.Credentials.Resolve(&cfg) {
			log.DebugWithFields("credential resolved", map[string]interface{}{
				"credential": string(name),
				"source":     source,
			})
		}
	}

	followerOpts := opts.Followers
	if followerOpts.Enrich {
		followerOpts.Extended = true
	}

	var warnings []loader.Warning
	enricher := opts.Enricher
	if followerOpts.Enrich && enricher == nil {
		if cfg.EnrichmentEnabled() {
			enricher = github.NewClient(withGitHubLogger(github.OptionsFromConfig(&cfg), log))
		} else {
			followerOpts.Enrich = false
			warnings = append(warnings, loader.Warning{
				Stage: loader.StageEnrichment,
				Err:   errs.Authentication(errs.APISecondary, errs.CredentialGitHubToken, "enrichment skipped: no token configured or enrichment disabled", 0),
			})
			log.Warn("enrichment skipped: no github token")
		}
	}

	client := opts.Client
	if client == nil {
		devtoOpts := devto.OptionsFromConfig(&cfg)
		devtoOpts.Logger = log
		client = devto.NewClient(devtoOpts)
	}

	store := opts.Cache
	if store == nil {
		store = cache.NewManagerFromConfig(&cfg, log)
	}
	if opts.Refresh {
		if _, err := store.Invalidate(); err != nil {
			return nil, fmt.Errorf("refreshing cache: %w", err)
		}
	}

	ld := loader.New(client, enricher, loader.Options{
		Workers:  cfg.RateLimit.DetailWorkers,
		PageSize: cfg.DevTo.PageSize,
		Progress: opts.Progress,
		Logger:   log,
	})

	res := &Result{
		Sources: make(map[cache.Key]cache.Source, 2),
		Variant: followerVariant(followerOpts),
	}
	var cacheErrs []error

	articles, source, err := cache.LoadOrFetch(ctx, store, cache.KeyArticles, "", cache.ArticleCodec{}, ld.LoadArticles)
	if err = splitCacheWrite(err, &cacheErrs); err != nil {
		return nil, err
	}
	res.Articles = articles
	res.Sources[cache.KeyArticles] = source

	followers, source, err := cache.LoadOrFetch(ctx, store, cache.KeyFollowers, res.Variant, cache.FollowerCodec{},
		func(ctx context.Context) ([]models.Follower, error) {
			table, err := ld.LoadFollowers(ctx, followerOpts)
			if err != nil {
				return nil, err
			}
			warnings = append(warnings, table.Warnings...)
			return table.Followers, nil
		})
	if err = splitCacheWrite(err, &cacheErrs); err != nil {
		return nil, err
	}
	res.Followers = followers
	res.Sources[cache.KeyFollowers] = source

	warnings = append(warnings, validationWarnings(res.Articles, res.Followers)...)
	res.Warnings = warnings
	res.Report = analysis.Summarize(res.Articles, res.Followers, analysis.ParamsFromConfig(cfg.Analysis))

	log.InfoWithFields("run complete", map[string]interface{}{
		"articles":         len(res.Articles),
		"followers":        len(res.Followers),
		"articles_source":  string(res.Sources[cache.KeyArticles]),
		"followers_source": string(res.Sources[cache.KeyFollowers]),
		"warnings":         len(res.Warnings),
	})

	return res, errors.Join(cacheErrs...)
}

// splitCacheWrite moves a cache write failure into cacheErrs and returns any
// other error
func splitCacheWrite(err error, cacheErrs *[]error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errs.ErrCacheWrite) {
		*cacheErrs = append(*cacheErrs, err)
		return nil
	}
	return err
}

func followerVariant(opts loader.FollowerOptions) string {
	switch {
	case opts.Enrich:
		return VariantEnriched
	case opts.Extended:
		return VariantExtended
	default:
		return VariantBasic
	}
}

func withGitHubLogger(opts github.Options, log logger.Logger) github.Options {
	opts.Logger = log
	return opts
}

// validationWarnings reports invariant violations as warnings; they never
// abort a run
func validationWarnings(articles []models.Article, followers []models.Follower) []loader.Warning {
	var warnings []loader.Warning
	if err := models.ValidateArticles(articles); err != nil {
		warnings = append(warnings, loader.Warning{Stage: StageValidation, Err: err})
	}
	if err := models.ValidateFollowers(followers); err != nil {
		warnings = append(warnings, loader.Warning{Stage: StageValidation, Err: err})
	}
	return warnings
}
