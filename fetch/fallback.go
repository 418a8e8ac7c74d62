package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dnldd/chartfeed/shared"
	"github.com/tidwall/gjson"
)

var (
	// errorMessageKeys are the keys the provider embeds error messages under.
	errorMessageKeys = []string{"Error Message", "error", "message", "Information", "Note"}
	// nestedRowKeys are the wrapper keys the provider nests row arrays under.
	nestedRowKeys = []string{"historical", "data", "results"}
	// restrictedMarkers identify provider messages about plan or subscription limits.
	restrictedMarkers = []string{
		"subscription",
		"exclusive endpoint",
		"special endpoint",
		"upgrade your plan",
		"not available under your current plan",
		"premium",
	}
)

// maxResponseBytes caps the provider response body read per request.
var maxResponseBytes int64 = 32 << 20

// outcomeKind represents how a single candidate request resolved.
type outcomeKind int

const (
	outcomeFailed outcomeKind = iota
	outcomeEmpty
	outcomeRows
)

// outcome represents the tagged result of a single candidate request.
type outcome struct {
	kind outcomeKind
	rows []gjson.Result
	err  error
}

// failed creates a failed outcome.
func failed(err error) outcome {
	return outcome{kind: outcomeFailed, err: err}
}

// redactURL masks the api key of the provided url for logging.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<unparseable url>"
	}

	params := u.Query()
	if params.Has("apikey") {
		params.Set("apikey", "REDACTED")
		u.RawQuery = params.Encode()
	}

	return u.String()
}

// isRestrictedMessage checks whether the provided provider message reports a plan limit.
func isRestrictedMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range restrictedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}

// providerMessage extracts an embedded provider error message, if any.
func providerMessage(payload gjson.Result) string {
	if !payload.IsObject() {
		return ""
	}

	for _, key := range errorMessageKeys {
		v := payload.Get(key)
		switch v.Type {
		case gjson.String:
			if v.String() != "" {
				return v.String()
			}
		case gjson.JSON:
			if msg := v.Get("message").String(); msg != "" {
				return msg
			}
		}
	}

	return ""
}

// extractRows returns the row array of the provided payload, unwrapping known wrappers.
// An empty object is the provider's way of reporting no data.
func extractRows(payload gjson.Result) ([]gjson.Result, bool) {
	switch {
	case payload.IsArray():
		return payload.Array(), true
	case payload.IsObject():
		for _, key := range nestedRowKeys {
			v := payload.Get(key)
			if v.IsArray() {
				return v.Array(), true
			}
		}
		if len(payload.Map()) == 0 {
			return []gjson.Result{}, true
		}
	}

	return nil, false
}

// fetchOne issues a single time bounded request against the provided url.
func (c *FMPClient) fetchOne(ctx context.Context, rawURL string, accept func([]gjson.Result) error) outcome {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return failed(fmt.Errorf("creating request: %w", err))
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Transport errors embed the request url, api key included.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = &url.Error{Op: ue.Op, URL: redactURL(ue.URL), Err: ue.Err}
		}
		return failed(fmt.Errorf("requesting data: %w", err))
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return failed(fmt.Errorf("reading response body: %w", err))
	}

	payload := gjson.ParseBytes(body)
	if msg := providerMessage(payload); msg != "" {
		if resp.StatusCode == http.StatusPaymentRequired || isRestrictedMessage(msg) {
			return failed(fmt.Errorf("%w: %s", shared.ErrSubscriptionRestricted, msg))
		}

		return failed(fmt.Errorf("%w: %s", shared.ErrProviderMessage, msg))
	}

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return failed(fmt.Errorf("%w: status %d", shared.ErrSubscriptionRestricted, resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return failed(fmt.Errorf("%w: status %d", shared.ErrUpstreamStatus, resp.StatusCode))
	}

	if !gjson.ValidBytes(body) {
		return failed(fmt.Errorf("%w: invalid json", shared.ErrMalformedPayload))
	}

	rows, ok := extractRows(payload)
	if !ok {
		return failed(fmt.Errorf("%w: unexpected %s payload", shared.ErrMalformedPayload, payload.Type.String()))
	}

	if len(rows) == 0 {
		return outcome{kind: outcomeEmpty}
	}

	if accept != nil {
		err := accept(rows)
		if err != nil {
			return failed(err)
		}
	}

	return outcome{kind: outcomeRows, rows: rows}
}

// fetchFirst resolves one logical query against the provided candidate urls in order.
//
// The first candidate with rows wins. Empty results are remembered while the remaining
// candidates are tried, and resolve to an empty, error free result when nothing else
// yields rows. Subscription restrictions stop the search immediately. Otherwise the last
// error encountered is returned.
func (c *FMPClient) fetchFirst(ctx context.Context, urls []string, accept func([]gjson.Result) error) ([]gjson.Result, error) {
	if c.cfg.APIKey == "" {
		return nil, shared.ErrMissingAPIKey
	}

	var sawEmptyResult bool
	var lastErr error
	for _, u := range urls {
		out := c.fetchOne(ctx, u, accept)

		switch out.kind {
		case outcomeRows:
			return out.rows, nil
		case outcomeEmpty:
			sawEmptyResult = true
		case outcomeFailed:
			c.cfg.Logger.Warn().Msgf("fetching %s: %v", redactURL(u), out.err)
			if errors.Is(out.err, shared.ErrSubscriptionRestricted) {
				return nil, out.err
			}
			lastErr = out.err
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if sawEmptyResult {
		return []gjson.Result{}, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate urls provided")
	}

	return nil, lastErr
}
