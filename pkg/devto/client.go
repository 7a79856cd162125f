package devto

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"devaudience/internal/restyutil"
	"devaudience/pkg/config"
	errs "devaudience/pkg/errors"
	"devaudience/pkg/logger"
	"devaudience/pkg/ratelimit"
	"devaudience/pkg/retry"
)

// Options configures a Client
type Options struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Timeout  time.Duration
	Policy   retry.RateLimitPolicy
	// Limiter paces requests; nil disables pacing
	Limiter ratelimit.Limiter
	Logger  logger.Logger
}

// OptionsFromConfig builds client options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:  cfg.DevTo.BaseURL,
		APIKey:   cfg.DevTo.APIKey,
		PageSize: cfg.DevTo.PageSize,
		Timeout:  cfg.DevTo.Timeout,
		Policy:   retry.PolicyFromConfig(cfg.RateLimit),
		Limiter:  ratelimit.New(cfg.RateLimit.RequestsPerMinute),
	}
}

// Client talks to the DEV (Forem) REST API
type Client struct {
	http     *resty.Client
	apiKey   string
	pageSize int
	policy   retry.RateLimitPolicy
	limiter  ratelimit.Limiter
	logger   logger.Logger
}

// NewClient creates a new DEV API client
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("api", errs.APIPrimary)

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", AcceptHeader).
		SetHeader("api-key", opts.APIKey)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	restyutil.Instrument(client, log)

	return &Client{
		http:     client,
		apiKey:   opts.APIKey,
		pageSize: clampPageSize(opts.PageSize),
		policy:   opts.Policy,
		limiter:  limiter,
		logger:   log,
	}
}

// PageSize returns the default page size of listings
func (c *Client) PageSize() int {
	return c.pageSize
}

// get performs one GET under the rate-limit policy and returns the body of
// the 2xx response
func (c *Client) get(ctx context.Context, endpoint string, query map[string]string, page int) ([]byte, error) {
	if c.apiKey == "" {
		return nil, errs.Authentication(errs.APIPrimary, errs.CredentialAPIKey, "no api key configured", 0)
	}

	var body []byte
	err := c.policy.Run(ctx, errs.APIPrimary, page, c.logger, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		res, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(query).
			Get(endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &errs.Error{
				Type:    errs.ErrorTypeAPI,
				API:     errs.APIPrimary,
				Page:    page,
				Message: "request failed",
				Err:     err,
			}
		}

		if err := c.checkResponseStatus(res, page); err != nil {
			return err
		}
		body = res.Body()
		return nil
	})
	return body, err
}

// checkResponseStatus maps the HTTP status to the error taxonomy
func (c *Client) checkResponseStatus(res *resty.Response, page int) error {
	status := res.StatusCode()
	switch {
	case c.policy.IsRateLimited(status):
		return errs.RateLimited(errs.APIPrimary, status, page)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": status,
			"url":    res.Request.URL,
		})
		return errs.Authentication(errs.APIPrimary, errs.CredentialAPIKey, "credential rejected", status)
	case status >= 200 && status < 300:
		return nil
	default:
		c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
			"status": status,
			"url":    res.Request.URL,
			"page":   page,
		})
		return errs.API(errs.APIPrimary, status, page, restyutil.Preview(res.Body()))
	}
}

// UserDetails looks up the public profile of username. Rate limiting is
// handled like a listing page; errors carry page 0.
func (c *Client) UserDetails(ctx context.Context, username string) (*UserRecord, error) {
	body, err := c.get(ctx, UserByUsernameEndpoint, map[string]string{"url": username}, 0)
	if err != nil {
		return nil, err
	}

	var user UserRecord
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			API:     errs.APIPrimary,
			Message: fmt.Sprintf("decoding profile of %s", username),
			Err:     err,
		}
	}
	return &user, nil
}

func pageQuery(fixed map[string]string, page, size int) map[string]string {
	query := make(map[string]string, len(fixed)+2)
	for k, v := range fixed {
		query[k] = v
	}
	query["page"] = strconv.Itoa(page)
	query["per_page"] = strconv.Itoa(size)
	return query
}
