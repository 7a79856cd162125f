package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"devaudience/internal/restyutil"
	"devaudience/pkg/config"
	errs "devaudience/pkg/errors"
	"devaudience/pkg/logger"
	"devaudience/pkg/models"
	"devaudience/pkg/retry"
)

const (
	// DefaultBaseURL is the public GitHub REST API
	DefaultBaseURL = "https://api.github.com"

	acceptHeader = "application/vnd.github+json"
	apiVersion   = "2022-11-28"
)

// Options configures a Client
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Policy  retry.RateLimitPolicy
	// BreakerFailures consecutive failures open the breaker; 0 means 5
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open; 0 means one minute
	BreakerCooldown time.Duration
	Logger          logger.Logger
}

// OptionsFromConfig builds client options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:         cfg.GitHub.BaseURL,
		Token:           cfg.GitHub.Token,
		Timeout:         cfg.GitHub.Timeout,
		Policy:          retry.PolicyFromConfig(cfg.RateLimit),
		BreakerFailures: cfg.GitHub.BreakerFailures,
	}
}

// Client fetches the public activity of GitHub accounts
type Client struct {
	http    *resty.Client
	token   string
	policy  retry.RateLimitPolicy
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger
}

type userRecord struct {
	Login       string `json:"login"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	Location    string `json:"location"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// NewClient creates a new enrichment client
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("api", errs.APISecondary)

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", acceptHeader).
		SetHeader("X-GitHub-Api-Version", apiVersion)
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	restyutil.Instrument(client, log)

	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := opts.BreakerCooldown
	if cooldown == 0 {
		cooldown = time.Minute
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "github-enrichment",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WarnWithFields("circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &Client{
		http:    client,
		token:   opts.Token,
		policy:  opts.Policy,
		breaker: breaker,
		logger:  log,
	}
}

// Enrich returns the public activity of the GitHub account handle. A handle
// that does not exist yields nil, nil. Without a token every call fails with
// an authentication error before any request is made.
func (c *Client) Enrich(ctx context.Context, handle string) (*models.Enrichment, error) {
	if c.token == "" {
		return nil, errs.Authentication(errs.APISecondary, errs.CredentialGitHubToken, "no github token configured", 0)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchUser(ctx, handle)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnavailable,
			API:     errs.APISecondary,
			Message: "enrichment unavailable",
			Err:     err,
		}
	}
	if err != nil {
		return nil, err
	}

	user, _ := out.(*userRecord)
	if user == nil {
		return nil, nil
	}
	return toEnrichment(user)
}

func (c *Client) fetchUser(ctx context.Context, handle string) (*userRecord, error) {
	var user *userRecord
	err := c.policy.Run(ctx, errs.APISecondary, 0, c.logger, func() error {
		res, err := c.http.R().
			SetContext(ctx).
			SetPathParam("handle", handle).
			Get("/users/{handle}")
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &errs.Error{
				Type:    errs.ErrorTypeAPI,
				API:     errs.APISecondary,
				Message: "request failed",
				Err:     err,
			}
		}

		if err := c.checkResponseStatus(res); err != nil {
			return err
		}
		if res.StatusCode() == http.StatusNotFound {
			user = nil
			return nil
		}

		var rec userRecord
		if err := json.Unmarshal(res.Body(), &rec); err != nil {
			return &errs.Error{
				Type:    errs.ErrorTypeParsing,
				API:     errs.APISecondary,
				Message: fmt.Sprintf("decoding user %s", handle),
				Err:     err,
			}
		}
		user = &rec
		return nil
	})
	return user, err
}

// checkResponseStatus maps the HTTP status to the error taxonomy. GitHub also
// signals an exhausted quota with 403 and X-RateLimit-Remaining: 0.
func (c *Client) checkResponseStatus(res *resty.Response) error {
	status := res.StatusCode()
	switch {
	case c.policy.IsRateLimited(status),
		status == http.StatusForbidden && res.Header().Get("X-RateLimit-Remaining") == "0":
		return errs.RateLimited(errs.APISecondary, status, 0)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errs.Authentication(errs.APISecondary, errs.CredentialGitHubToken, "credential rejected", status)
	case status == http.StatusNotFound:
		return nil
	case status >= 200 && status < 300:
		return nil
	default:
		return errs.API(errs.APISecondary, status, 0, restyutil.Preview(res.Body()))
	}
}

func toEnrichment(u *userRecord) (*models.Enrichment, error) {
	e := &models.Enrichment{
		PublicRepos: u.PublicRepos,
		Followers:   u.Followers,
		Following:   u.Following,
	}
	if u.Location != "" {
		loc := u.Location
		e.Location = &loc
	}
	var err error
	if e.CreatedAt, err = parseTime(u.Login, "created_at", u.CreatedAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(u.Login, "updated_at", u.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

func parseTime(login, field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			API:     errs.APISecondary,
			Message: fmt.Sprintf("%s of %s", field, login),
			Err:     err,
		}
	}
	t = t.UTC()
	return &t, nil
}
