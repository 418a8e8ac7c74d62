package shared

import "errors"

var (
	// ErrSubscriptionRestricted is returned when the provider plan does not cover the request.
	// Retrying other endpoints, slices or symbol variants cannot succeed.
	ErrSubscriptionRestricted = errors.New("subscription restricted")
	// ErrMissingAPIKey is returned when no provider api key is configured.
	ErrMissingAPIKey = errors.New("missing provider api key")
	// ErrMalformedPayload is returned when a response is neither an array nor a known wrapper.
	ErrMalformedPayload = errors.New("malformed provider payload")
	// ErrUpstreamStatus is returned for non-2xx provider responses.
	ErrUpstreamStatus = errors.New("unexpected upstream status")
	// ErrProviderMessage is returned when the provider embeds an error message in its response.
	ErrProviderMessage = errors.New("provider error message")
	// ErrCloseOnlySeries is returned when a daily series carries no genuine open/high/low values.
	ErrCloseOnlySeries = errors.New("close-only daily series")
	// ErrNoData is returned when the provider has no data for the requested symbol.
	ErrNoData = errors.New("no data available")
)
