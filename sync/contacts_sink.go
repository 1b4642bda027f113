package sync

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"
)

// ContactsSink upserts contact records into Action Network one at a time,
// enrolling them into advocacy campaigns via outreaches. Records are
// processed sequentially, the sink holds no fan-out and its campaign cache
// is private to the instance.
type ContactsSink struct {
	*SyncContext
	API       *ActionNetworkFetcherAndUpdater
	Mapper    ContactsMapper
	Campaigns *AdvocacyCampaignResolver
}

// NewContactsSink constructs a sink and its collaborators around a fresh
// SyncContext with a unique run id.
func NewContactsSink(config Config, recordRequests bool) *ContactsSink {
	syncContext := &SyncContext{
		Config:         config,
		RunID:          uuid.NewString(),
		RecordRequests: recordRequests,
	}
	api := &ActionNetworkFetcherAndUpdater{SyncContext: syncContext}
	return &ContactsSink{
		SyncContext: syncContext,
		API:         api,
		Mapper:      ContactsMapper{SyncContext: syncContext, API: api},
		Campaigns:   NewAdvocacyCampaignResolver(syncContext, api),
	}
}

// UpsertRecord processes one contact record: normalize, persist the person,
// then resolve each requested list to a campaign and record an outreach.
// With HaltOnError unset, failures become a failed outcome carrying the
// error in StateUpdates; with it set they return as errors.
func (s *ContactsSink) UpsertRecord(record ContactRecord, ctx context.Context) (UpsertOutcome, error) {
	if record.Error != "" {
		return s.failed(ValidationError{Message: record.Error})
	}

	mapped, err := s.Mapper.MapContactRecord(record, ctx)
	if err != nil {
		return s.failed(err)
	}
	person := mapped.Person

	body, err := sjson.SetBytes([]byte(`{}`), "person", person)
	if err != nil {
		return s.failed(fmt.Errorf("failed to build person payload %w", err))
	}
	src, err := s.API.Request(http.MethodPost, "people", nil, body, ctx)
	if err != nil {
		return s.failed(fmt.Errorf("failed to create person: %w", err))
	}
	id := src.SelfID()
	if id == "" {
		return s.failed(fmt.Errorf("missing self link in person creation response"))
	}

	if len(mapped.Lists) > 0 {
		if !person.HasContactChannels() {
			return s.failed(ValidationError{Message: "email or phone number is required to create outreaches"})
		}
		for _, name := range mapped.Lists {
			campaignID, err := s.Campaigns.ResolveOrCreate(name, ctx)
			if err != nil {
				return s.failed(err)
			}
			if _, err := s.Campaigns.CreateOutreach(campaignID, person.EmailAddresses, person.PhoneNumbers, ctx); err != nil {
				return s.failed(err)
			}
		}
	}

	stateUpdates := make(map[string]interface{})
	if mapped.MergedExisting {
		stateUpdates["is_updated"] = true
	}
	log.Printf("contact created with id %s", id)
	return UpsertOutcome{ID: id, Success: true, StateUpdates: stateUpdates}, nil
}

// failed converts an error into the configured failure behaviour.
func (s *ContactsSink) failed(err error) (UpsertOutcome, error) {
	if s.Config.HaltOnError {
		return UpsertOutcome{}, err
	}
	return UpsertOutcome{
		Success:      false,
		StateUpdates: map[string]interface{}{"error": err.Error()},
	}, nil
}
