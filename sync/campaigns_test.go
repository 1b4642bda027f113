package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"
)

type campaignAPICounters struct {
	listings  int
	creations int
	updates   int
	outreach  int
}

func newCampaignTestServer(t *testing.T, counters *campaignAPICounters) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/advocacy_campaigns", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			counters.creations++
			body, _ := io.ReadAll(r.Body)
			title := gjson.GetBytes(body, "title").String()
			fmt.Fprintf(w, `{"_links":{"self":{"href":"https://actionnetwork.org/api/v2/advocacy_campaigns/created-%s"}}}`, title)
			return
		}
		counters.listings++
		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprint(w, `{"total_pages":2}`)
		case "1":
			fmt.Fprint(w, `{"total_pages":2,"_embedded":{"osdi:advocacy_campaigns":[
				{"title":"Spring","identifiers":["action_network:id-1"],"origin_system":"Hotglue"},
				{"title":"Spring","identifiers":["action_network:id-dup"],"origin_system":"Hotglue"}
			]}}`)
		case "2":
			fmt.Fprint(w, `{"total_pages":2,"_embedded":{"osdi:advocacy_campaigns":[
				{"title":"Gala","identifiers":["action_network:id-2"],"origin_system":"SomeCRM"}
			]}}`)
		default:
			t.Errorf("Unexpected listing page: %s", r.URL.Query().Get("page"))
		}
	})
	mux.HandleFunc("/advocacy_campaigns/id-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Expected PUT for origin system update but have: %s", r.Method)
		}
		counters.updates++
		fmt.Fprint(w, `{}`)
	})
	return httptest.NewServer(mux)
}

func testResolver(config Config) *AdvocacyCampaignResolver {
	syncContext := &SyncContext{Config: config, RunID: "test-run"}
	return NewAdvocacyCampaignResolver(syncContext, &ActionNetworkFetcherAndUpdater{SyncContext: syncContext})
}

func TestResolveOrCreateLoadsListingOnce(t *testing.T) {
	var counters campaignAPICounters
	server := newCampaignTestServer(t, &counters)
	defer server.Close()

	var config Config
	config.API.Keys.ActionNetwork = "test-token"
	config.API.Endpoints.ActionNetwork = server.URL
	resolver := testResolver(config)

	id, err := resolver.ResolveOrCreate("Spring", context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// duplicate titles in the listing keep the first-seen mapping
	if id != "id-1" {
		t.Errorf("Expected id-1 but have: %s", id)
	}
	if counters.listings != 3 {
		t.Errorf("Expected one listing load (3 calls: page count + 2 pages) but have: %d", counters.listings)
	}

	id, err = resolver.ResolveOrCreate("Gala", context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != "id-2" {
		t.Errorf("Expected id-2 but have: %s", id)
	}
	if counters.listings != 3 {
		t.Errorf("Expected no further listing calls but have: %d", counters.listings)
	}
	if counters.creations != 0 {
		t.Errorf("Expected no creation calls for cached campaigns but have: %d", counters.creations)
	}
}

func TestResolveOrCreateCreatesOnMiss(t *testing.T) {
	var counters campaignAPICounters
	server := newCampaignTestServer(t, &counters)
	defer server.Close()

	var config Config
	config.API.Keys.ActionNetwork = "test-token"
	config.API.Endpoints.ActionNetwork = server.URL
	resolver := testResolver(config)

	id, err := resolver.ResolveOrCreate("Winter", context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != "created-Winter" {
		t.Errorf("Expected id from the creation self link but have: %s", id)
	}
	if counters.creations != 1 {
		t.Errorf("Expected one creation call but have: %d", counters.creations)
	}

	// second resolution hits the cache
	id, err = resolver.ResolveOrCreate("Winter", context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != "created-Winter" {
		t.Errorf("Expected cached id but have: %s", id)
	}
	if counters.creations != 1 || counters.listings != 3 {
		t.Errorf("Expected at most one creation and one listing load but have: %+v", counters)
	}
}

func TestResolveOrCreateBackfillsPlaceholderOriginSystem(t *testing.T) {
	var counters campaignAPICounters
	server := newCampaignTestServer(t, &counters)
	defer server.Close()

	var config Config
	config.API.Keys.ActionNetwork = "test-token"
	config.API.Endpoints.ActionNetwork = server.URL
	config.CampaignOriginSystem = "MyCRM"
	resolver := testResolver(config)

	if _, err := resolver.ResolveOrCreate("Spring", context.Background()); err != nil {
		t.Fatal(err)
	}
	if counters.updates != 1 {
		t.Errorf("Expected one origin system backfill but have: %d", counters.updates)
	}

	// already backfilled, no further update
	if _, err := resolver.ResolveOrCreate("Spring", context.Background()); err != nil {
		t.Fatal(err)
	}
	if counters.updates != 1 {
		t.Errorf("Expected no repeat backfill but have: %d", counters.updates)
	}

	// a campaign owned by another origin system is left alone
	if _, err := resolver.ResolveOrCreate("Gala", context.Background()); err != nil {
		t.Fatal(err)
	}
	if counters.updates != 1 {
		t.Errorf("Expected no backfill of foreign origin systems but have: %d", counters.updates)
	}
}

func TestCreateOutreachSendsPresentChannelsOnly(t *testing.T) {
	var requestBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/advocacy_campaigns/camp-1/outreaches", func(w http.ResponseWriter, r *http.Request) {
		requestBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"_links":{"self":{"href":"https://actionnetwork.org/api/v2/advocacy_campaigns/camp-1/outreaches/out-9"}}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	var config Config
	config.API.Keys.ActionNetwork = "test-token"
	config.API.Endpoints.ActionNetwork = server.URL
	resolver := testResolver(config)

	emails := []EmailAddress{{Address: "a@x.com", Primary: true, Status: "subscribed"}}
	id, err := resolver.CreateOutreach("camp-1", emails, nil, context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != "out-9" {
		t.Errorf("Expected id from the outreach self link but have: %s", id)
	}
	if !json.Valid(requestBody) {
		t.Fatalf("Expected a json body but have: %s", requestBody)
	}
	if address := gjson.GetBytes(requestBody, "person.email_addresses.0.address").String(); address != "a@x.com" {
		t.Errorf("Expected outreach email address but have: %q", address)
	}
	// only the address is carried, not status or primary
	if gjson.GetBytes(requestBody, "person.email_addresses.0.status").Exists() {
		t.Errorf("Expected a bare address entry but have: %s", requestBody)
	}
	if gjson.GetBytes(requestBody, "person.phone_numbers").Exists() {
		t.Errorf("Expected no phone numbers in body but have: %s", requestBody)
	}
}
