package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/carlmjohnson/requests"
)

// ActionNetworkFetcherAndUpdater handles all Action Network API operations.
// It embeds *SyncContext for shared sync configuration.
type ActionNetworkFetcherAndUpdater struct {
	*SyncContext
}

// APIBuilder returns a new requests.Builder configured for the Action
// Network API.
func (a *ActionNetworkFetcherAndUpdater) APIBuilder() *requests.Builder {
	result := requests.
		URL(a.Config.Endpoint()).
		Client(&http.Client{Timeout: HTTPRequestTimeout})
	if a.RecordRequests {
		result = result.Transport(requests.Record(nil, fmt.Sprintf("sync/testdata/.requests/%s", a.RunID)))
	}
	return result
}

// Request issues one API call with bounded exponential backoff on transient
// failures and network timeouts. The credential header is injected on every
// attempt. Non-retriable classifications return immediately. POSTs are not
// deduplicated by this layer.
func (a *ActionNetworkFetcherAndUpdater) Request(method string, endpoint string, params url.Values, body []byte, ctx context.Context) (Source, error) {
	delay := RequestBackoffBaseDelay
	var lastErr error
	for attempt := 1; attempt <= RequestMaxAttempts; attempt++ {
		var status int
		var raw string
		builder := a.APIBuilder().
			Method(method).
			Path(endpoint).
			Header("OSDI-API-Token", a.Config.API.Keys.ActionNetwork).
			AddValidator(func(res *http.Response) error {
				return nil // classification happens below, all statuses pass through
			}).
			Handle(func(res *http.Response) error {
				status = res.StatusCode
				data, err := io.ReadAll(res.Body)
				if err != nil {
					return err
				}
				raw = string(data)
				return nil
			})
		for key, values := range params {
			builder = builder.Param(key, values...)
		}
		if body != nil {
			builder = builder.BodyBytes(body).ContentType("application/json")
		}

		err := builder.Fetch(ctx)
		if err == nil {
			err = classifyResponse(status, raw)
		}
		if err == nil {
			return ParseSource(raw), nil
		}
		if !isRetriable(err) {
			return Source{}, err
		}
		lastErr = err
		if attempt < RequestMaxAttempts {
			log.Printf("Warning: retriable failure on %s %s (attempt %d of %d): %v", method, endpoint, attempt, RequestMaxAttempts, err)
			time.Sleep(delay)
			delay = delay * 2
		}
	}
	return Source{}, fmt.Errorf("retries exhausted after %d attempts: %w", RequestMaxAttempts, lastErr)
}

// FindPersonByEmail looks up an existing remote person by email address.
// Returns found=false when there is no match.
func (a *ActionNetworkFetcherAndUpdater) FindPersonByEmail(email string, ctx context.Context) (Person, bool, error) {
	var person Person
	if email == "" {
		return person, false, nil
	}
	params := url.Values{
		"filter": {fmt.Sprintf("email_address eq '%s'", email)},
	}
	src, err := a.Request(http.MethodGet, "people", params, nil, ctx)
	if err != nil {
		return person, false, err
	}
	matches := src.ArrayForPath("_embedded.osdi:people")
	if len(matches) == 0 {
		return person, false, nil
	}
	if err := json.Unmarshal([]byte(matches[0].JSON()), &person); err != nil {
		return person, false, fmt.Errorf("failed to decode existing person %w", err)
	}
	return person, true, nil
}
