package sync

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// Person is the canonical nested contact payload sent to the Action Network
// people endpoint, and the shape remote people are read back in for
// merge-mode lookups.
type Person struct {
	GivenName       string            `json:"given_name,omitempty"`
	FamilyName      string            `json:"family_name,omitempty"`
	PostalAddresses []PostalAddress   `json:"postal_addresses,omitempty"`
	EmailAddresses  []EmailAddress    `json:"email_addresses,omitempty"`
	PhoneNumbers    []PhoneNumber     `json:"phone_numbers,omitempty"`
	CustomFields    map[string]string `json:"custom_fields,omitempty"`
	AddTags         []string          `json:"add_tags,omitempty"`
}

type PostalAddress struct {
	AddressLines []string `json:"address_lines,omitempty"`
	Locality     string   `json:"locality,omitempty"`
	PostalCode   string   `json:"postal_code,omitempty"`
	Country      string   `json:"country,omitempty"`
	Region       string   `json:"region,omitempty"`
}

type EmailAddress struct {
	Address string `json:"address"`
	Primary bool   `json:"primary"`
	Status  string `json:"status,omitempty"`
}

// PhoneNumber carries a contact phone. The outbound key is "number",
// matching the OSDI person schema.
type PhoneNumber struct {
	Number string `json:"number"`
	Type   string `json:"type,omitempty"`
}

// HasContactChannels reports whether the person carries at least one email
// address or phone number.
func (p Person) HasContactChannels() bool {
	return len(p.EmailAddresses) > 0 || len(p.PhoneNumbers) > 0
}

// ContactRecord is one generic contact record as delivered by the upstream
// extraction pipeline. All fields are optional.
type ContactRecord struct {
	FirstName        string               `json:"first_name"`
	LastName         string               `json:"last_name"`
	Email            string               `json:"email"`
	AdditionalEmails []string             `json:"additional_emails"`
	PhoneNumbers     []ContactPhoneNumber `json:"phone_numbers"`
	Addresses        []ContactAddress     `json:"addresses"`
	CustomFields     []ContactCustomField `json:"custom_fields"`
	Tags             []string             `json:"tags"`
	SubscribeStatus  string               `json:"subscribe_status"`
	Unsubscribed     bool                 `json:"unsubscribed"`
	Lists            []string             `json:"lists"`
	Error            string               `json:"error"`
}

type ContactPhoneNumber struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

type ContactAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	Line3      string `json:"line3"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	State      string `json:"state"`
}

type ContactCustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseContactRecord parses a pipeline record from its JSON form.
func ParseContactRecord(data []byte) (ContactRecord, error) {
	var record ContactRecord
	if !gjson.ValidBytes(data) {
		return record, errors.New("invalid json record")
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, err
	}
	return record, nil
}

// MappedContact is the result of normalizing one ContactRecord: the person
// payload, the detached list names, and whether merge mode matched an
// existing remote person.
type MappedContact struct {
	Person         Person
	Lists          []string
	MergedExisting bool
}

// UpsertOutcome is the per-record result consumed by the pipeline's
// checkpointing layer.
type UpsertOutcome struct {
	ID           string
	Success      bool
	StateUpdates map[string]interface{}
}
