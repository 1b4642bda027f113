package sync

import "time"

// HTTPRequestTimeout is the default timeout for all HTTP requests to external APIs.
const HTTPRequestTimeout = 60 * time.Second

// DefaultAPIEndpoint is the versioned Action Network API root used when no
// endpoint override is configured.
const DefaultAPIEndpoint = "https://actionnetwork.org/api/v2/"

// RequestMaxAttempts is the retry ceiling for transient request failures.
const RequestMaxAttempts = 5

// RequestBackoffBaseDelay is the initial delay between retries of transient
// request failures, doubled after each failed attempt.
var RequestBackoffBaseDelay = time.Second
