package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	gosync "sync"

	"github.com/tidwall/sjson"
)

// PlaceholderOriginSystem is the default origin_system attribution on
// advocacy campaigns created by this connector, and the value treated as
// backfillable when a CampaignOriginSystem override is configured.
const PlaceholderOriginSystem = "Hotglue"

// AdvocacyCampaign is one cached remote campaign.
type AdvocacyCampaign struct {
	ID           string
	Title        string
	OriginSystem string
}

// AdvocacyCampaignResolver maintains a process-lifetime mapping from
// campaign title to remote campaign, populated on first use via the
// paginated listing and extended by create-on-demand. Titles are
// case-sensitive and the first resolution wins, later duplicates keep the
// original mapping.
//
// The cache belongs to a single sink instance. The mutex covers
// read-check-create within that instance only, two parallel connector
// processes creating the same missing title can still both succeed and
// produce duplicate remote campaigns.
type AdvocacyCampaignResolver struct {
	*SyncContext
	API *ActionNetworkFetcherAndUpdater

	mu        gosync.Mutex
	campaigns map[string]AdvocacyCampaign
}

func NewAdvocacyCampaignResolver(syncContext *SyncContext, api *ActionNetworkFetcherAndUpdater) *AdvocacyCampaignResolver {
	return &AdvocacyCampaignResolver{
		SyncContext: syncContext,
		API:         api,
	}
}

// ensureLoaded populates the cache from the campaign listing if it is
// empty. Page 1 is fetched first to learn the total page count, then every
// page is fetched sequentially. Callers must hold the mutex.
func (r *AdvocacyCampaignResolver) ensureLoaded(ctx context.Context) error {
	if r.campaigns != nil {
		return nil
	}
	first, err := r.API.Request(http.MethodGet, "advocacy_campaigns", nil, nil, ctx)
	if err != nil {
		return fmt.Errorf("failed to list advocacy campaigns %w", err)
	}
	totalPages, _ := first.IntForPath("total_pages")

	loaded := make(map[string]AdvocacyCampaign)
	for page := int64(1); page <= totalPages; page++ {
		params := url.Values{"page": {strconv.FormatInt(page, 10)}}
		src, err := r.API.Request(http.MethodGet, "advocacy_campaigns", params, nil, ctx)
		if err != nil {
			return fmt.Errorf("failed to list advocacy campaigns page %d %w", page, err)
		}
		for _, entry := range src.ArrayForPath("_embedded.osdi:advocacy_campaigns") {
			title, _ := entry.StringForPath("title")
			identifier, _ := entry.StringForPath("identifiers.0")
			originSystem, _ := entry.StringForPath("origin_system")
			parts := strings.SplitN(identifier, ":", 2)
			if title == "" || len(parts) != 2 {
				log.Printf("Warning: skipping advocacy campaign with unusable listing entry (title=%q, identifiers=%q)", title, identifier)
				continue
			}
			if existing, exists := loaded[title]; exists {
				log.Printf("Warning: the advocacy campaign (title=%q, id=%s) already exists and is mapped to id=%s", title, parts[1], existing.ID)
				continue
			}
			loaded[title] = AdvocacyCampaign{
				ID:           parts[1],
				Title:        title,
				OriginSystem: originSystem,
			}
		}
	}
	r.campaigns = loaded
	return nil
}

// ResolveOrCreate returns the remote campaign id for a campaign title,
// creating the campaign when no existing one carries that title. Creation
// failures do not corrupt the cache.
func (r *AdvocacyCampaignResolver) ResolveOrCreate(name string, ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoaded(ctx); err != nil {
		return "", err
	}

	if campaign, exists := r.campaigns[name]; exists {
		r.backfillOriginSystem(campaign, ctx)
		return campaign.ID, nil
	}

	origin := r.Config.OriginSystem()
	payload := struct {
		Title        string `json:"title"`
		OriginSystem string `json:"origin_system"`
		Type         string `json:"type"`
	}{
		Title:        name,
		OriginSystem: origin,
		Type:         "email",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", CampaignCreationError{Name: name, Cause: err}
	}
	src, err := r.API.Request(http.MethodPost, "advocacy_campaigns", nil, body, ctx)
	if err != nil {
		return "", CampaignCreationError{Name: name, Cause: err}
	}
	id := src.SelfID()
	if id == "" {
		return "", CampaignCreationError{Name: name, Cause: errors.New("missing self link in creation response")}
	}
	r.campaigns[name] = AdvocacyCampaign{ID: id, Title: name, OriginSystem: origin}
	log.Printf("advocacy campaign %q created with id %s", name, id)
	return id, nil
}

// backfillOriginSystem updates a cached campaign's origin_system when it
// still carries the placeholder and an override origin is configured.
// Failures are logged, a stale attribution is not worth failing a record.
// Callers must hold the mutex.
func (r *AdvocacyCampaignResolver) backfillOriginSystem(campaign AdvocacyCampaign, ctx context.Context) {
	override := r.Config.CampaignOriginSystem
	if override == "" || override == PlaceholderOriginSystem || campaign.OriginSystem != PlaceholderOriginSystem {
		return
	}
	body, err := json.Marshal(struct {
		OriginSystem string `json:"origin_system"`
	}{OriginSystem: override})
	if err != nil {
		log.Printf("Warning: failed to build origin system update for advocacy campaign %s: %v", campaign.ID, err)
		return
	}
	if _, err := r.API.Request(http.MethodPut, "advocacy_campaigns/"+campaign.ID, nil, body, ctx); err != nil {
		log.Printf("Warning: failed to update origin system for advocacy campaign %s: %v", campaign.ID, err)
		return
	}
	campaign.OriginSystem = override
	r.campaigns[campaign.Title] = campaign
}

// CreateOutreach records an outreach against a campaign for whichever
// contact channels are present.
func (r *AdvocacyCampaignResolver) CreateOutreach(campaignID string, emailAddresses []EmailAddress, phoneNumbers []PhoneNumber, ctx context.Context) (string, error) {
	body := `{"person":{}}`
	var err error
	if len(emailAddresses) > 0 {
		addresses := make([]map[string]string, len(emailAddresses))
		for i, email := range emailAddresses {
			addresses[i] = map[string]string{"address": email.Address}
		}
		body, err = sjson.Set(body, "person.email_addresses", addresses)
		if err != nil {
			return "", OutreachCreationError{CampaignID: campaignID, Person: body, Cause: err}
		}
	}
	if len(phoneNumbers) > 0 {
		numbers := make([]map[string]string, len(phoneNumbers))
		for i, phone := range phoneNumbers {
			numbers[i] = map[string]string{"number": phone.Number}
		}
		body, err = sjson.Set(body, "person.phone_numbers", numbers)
		if err != nil {
			return "", OutreachCreationError{CampaignID: campaignID, Person: body, Cause: err}
		}
	}

	endpoint := fmt.Sprintf("advocacy_campaigns/%s/outreaches", campaignID)
	src, err := r.API.Request(http.MethodPost, endpoint, nil, []byte(body), ctx)
	if err != nil {
		return "", OutreachCreationError{CampaignID: campaignID, Person: body, Cause: err}
	}
	id := src.SelfID()
	if id == "" {
		return "", OutreachCreationError{CampaignID: campaignID, Person: body, Cause: errors.New("missing self link in creation response")}
	}
	log.Printf("outreach created with id %s for advocacy campaign %s", id, campaignID)
	return id, nil
}
