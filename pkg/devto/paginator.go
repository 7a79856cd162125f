package devto

import (
	"context"
	"encoding/json"
	"iter"

	errs "devaudience/pkg/errors"
	"devaudience/pkg/logger"
)

// Pages returns the lazy sequence of pages of a listing. Page numbers start
// at 1. The sequence ends after an empty page or a page shorter than the
// page size; an error is yielded once and ends it. No request is made until
// the sequence is ranged over, and breaking out stops further requests.
func (c *Client) Pages(ctx context.Context, req PageRequest) iter.Seq2[[]json.RawMessage, error] {
	size := c.pageSize
	if req.PageSize > 0 {
		size = clampPageSize(req.PageSize)
	}

	return func(yield func([]json.RawMessage, error) bool) {
		for page := 1; ; page++ {
			body, err := c.get(ctx, req.Endpoint, pageQuery(req.Query, page, size), page)
			if err != nil {
				yield(nil, err)
				return
			}

			var records []json.RawMessage
			if err := json.Unmarshal(body, &records); err != nil {
				yield(nil, &errs.Error{
					Type:    errs.ErrorTypeParsing,
					API:     errs.APIPrimary,
					Page:    page,
					Message: "page is not a JSON array",
					Err:     err,
				})
				return
			}
			logger.LogPage(c.logger, errs.APIPrimary, req.Endpoint, page, len(records))

			if len(records) == 0 {
				return
			}
			if !yield(records, nil) {
				return
			}
			if len(records) < size {
				return
			}
		}
	}
}

// Collect drains a page sequence, decoding every record with decode
func Collect[T any](pages iter.Seq2[[]json.RawMessage, error], decode func(json.RawMessage) (T, error)) ([]T, error) {
	var out []T
	for records, err := range pages {
		if err != nil {
			return nil, err
		}
		for _, raw := range records {
			v, err := decode(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// Decode is the default record decoder for Collect
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			API:     errs.APIPrimary,
			Message: "decoding record",
			Err:     err,
		}
	}
	return v, nil
}
