package loader

import (
	"devaudience/pkg/logger"
)

// Options configures a Loader
type Options struct {
	// Workers bounds concurrent detail and enrichment calls; 1 is sequential
	Workers int
	// PageSize overrides the client's page size when positive
	PageSize int
	// Progress, when set, is called after each follower detail lookup with
	// the number of completed followers and the total. It may be called
	// concurrently.
	Progress func(done, total int)
	Logger   logger.Logger
}

// Loader turns API listings into article and follower tables
type Loader struct {
	client   PrimaryClient
	enricher Enricher
	workers  int
	pageSize int
	progress func(done, total int)
	logger   logger.Logger
}

// New creates a Loader. enricher may be nil, which disables enrichment.
func New(client PrimaryClient, enricher Enricher, opts Options) *Loader {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	return &Loader{
		client:   client,
		enricher: enricher,
		workers:  workers,
		pageSize: opts.PageSize,
		progress: opts.Progress,
		logger:   log.WithField("component", "loader"),
	}
}
