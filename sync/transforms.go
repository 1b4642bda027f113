package sync

import (
	"log"
	"slices"

	"github.com/biter777/countries"
	"github.com/ttacon/libphonenumber"
)

// recognisedSubscribeStatuses are the subscription statuses the people
// endpoint accepts on an email address.
var recognisedSubscribeStatuses = []string{
	"subscribed",
	"unsubscribed",
	"bouncing",
	"previous bounce",
	"spam complaint",
	"previous spam complaint",
}

// resolveSubscribeStatus picks the email subscription status for a record:
// a recognised subscribe_status wins, otherwise an unsubscribed flag maps
// to "unsubscribed", otherwise no status is set.
func resolveSubscribeStatus(record ContactRecord, config Config) string {
	if record.SubscribeStatus != "" {
		if slices.Contains(recognisedSubscribeStatuses, record.SubscribeStatus) ||
			slices.Contains(config.LegacySubscribeStatuses, record.SubscribeStatus) {
			return record.SubscribeStatus
		}
	}
	if record.Unsubscribed {
		return "unsubscribed"
	}
	return ""
}

// NormalizeCountry converts a country value to its ISO 3166-1 alpha-2 code.
// Matches on Alpha-2 / Alpha-3 / Name, unrecognised values pass through
// verbatim.
func NormalizeCountry(value string) string {
	if value == "" {
		return ""
	}
	c := countries.ByName(value)
	if countries.Unknown == c {
		return value
	}
	return c.Alpha2()
}

// NormalizePhoneNumber formats a phone number as E.164 using the given
// default region. An empty region disables normalization, and numbers that
// fail to parse are kept as-is.
func NormalizePhoneNumber(value string, defaultRegion string) string {
	if value == "" || defaultRegion == "" {
		return value
	}
	num, err := libphonenumber.Parse(value, defaultRegion)
	if err != nil {
		log.Printf("Warning: failed to parse phone number %q with region %q: %v (keeping raw value)", value, defaultRegion, err)
		return value
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}
