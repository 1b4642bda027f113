package sync

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// CredentialError indicates the API rejected our credentials (401/403).
// Non-retriable. The message is sanitised before it ever reaches a user,
// the API echoes the key back in some credential failure bodies.
type CredentialError struct {
	Message string
}

func (e CredentialError) Error() string {
	return fmt.Sprintf("invalid credentials: %s", e.Message)
}

// PayloadError indicates the API rejected the request payload (400).
// Non-retriable.
type PayloadError struct {
	Body string
}

func (e PayloadError) Error() string {
	return fmt.Sprintf("invalid payload: %s", e.Body)
}

// TransientError indicates a failure worth retrying (500, which the API
// returns for both bad requests and internal errors).
type TransientError struct {
	Status int
	Body   string
}

func (e TransientError) Error() string {
	return fmt.Sprintf("transient failure with status %d: %s", e.Status, e.Body)
}

// ValidationError indicates a record failed validation before or between
// API calls. Non-retriable.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// CampaignCreationError wraps a failure to create an advocacy campaign.
type CampaignCreationError struct {
	Name  string
	Cause error
}

func (e CampaignCreationError) Error() string {
	return fmt.Sprintf("failed to create advocacy campaign %q: %v", e.Name, e.Cause)
}

func (e CampaignCreationError) Unwrap() error {
	return e.Cause
}

// OutreachCreationError wraps a failure to create an outreach, keeping the
// campaign id and the attempted person body for diagnostics.
type OutreachCreationError struct {
	CampaignID string
	Person     string
	Cause      error
}

func (e OutreachCreationError) Error() string {
	return fmt.Sprintf("failed to create outreach for advocacy campaign %s with person %s: %v", e.CampaignID, e.Person, e.Cause)
}

func (e OutreachCreationError) Unwrap() error {
	return e.Cause
}

// classifyResponse maps an HTTP status code and response body to a typed
// outcome. Pure and side effect free, 2xx maps to nil.
func classifyResponse(status int, body string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 401 || status == 403:
		// Credential failure bodies can include the API key itself,
		// which must NOT be exposed.
		if strings.Contains(body, "API Key") {
			return CredentialError{Message: "API key invalid or not present."}
		}
		return CredentialError{Message: body}
	case status == 400:
		return PayloadError{Body: body}
	case status == 500:
		return TransientError{Status: status, Body: body}
	default:
		return fmt.Errorf("request failed with status %d: %s", status, body)
	}
}

// isRetriable reports whether a request error is worth another attempt:
// transient API failures and network timeouts only.
func isRetriable(err error) bool {
	var transient TransientError
	if errors.As(err, &transient) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
