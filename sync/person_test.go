package sync

import (
	"strings"
	"testing"
)

func TestParseContactRecord(t *testing.T) {
	json := `{
		"first_name": "Ann",
		"last_name": "Lee",
		"email": "a@x.com",
		"phone_numbers": [{"number": "+61412345678", "type": "Mobile"}],
		"addresses": [{"line1": "1 Main St", "city": "Springfield", "postal_code": "4000", "country": "AU", "state": "QLD"}],
		"custom_fields": [{"name": "team", "value": "Red"}],
		"tags": ["supporter"],
		"subscribe_status": "subscribed",
		"lists": ["Spring"]
	}`
	record, err := ParseContactRecord([]byte(json))
	if err != nil {
		t.Fatal(err)
	}
	if record.FirstName != "Ann" || record.LastName != "Lee" || record.Email != "a@x.com" {
		t.Errorf("Unexpected record: %+v", record)
	}
	if len(record.PhoneNumbers) != 1 || record.PhoneNumbers[0].Number != "+61412345678" {
		t.Errorf("Unexpected phone numbers: %+v", record.PhoneNumbers)
	}
	if len(record.Addresses) != 1 || record.Addresses[0].City != "Springfield" {
		t.Errorf("Unexpected addresses: %+v", record.Addresses)
	}
	if len(record.Lists) != 1 || record.Lists[0] != "Spring" {
		t.Errorf("Unexpected lists: %+v", record.Lists)
	}
}

func TestParseContactRecordRejectsInvalidJSON(t *testing.T) {
	_, err := ParseContactRecord([]byte(`{"first_name": `))
	if err == nil {
		t.Fatal("Expected an error for invalid json")
	}
	if !strings.Contains(err.Error(), "invalid json") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestPersonHasContactChannels(t *testing.T) {
	var person Person
	if person.HasContactChannels() {
		t.Error("Expected no contact channels")
	}
	person.EmailAddresses = []EmailAddress{{Address: "a@x.com"}}
	if !person.HasContactChannels() {
		t.Error("Expected email to count as a contact channel")
	}
	person = Person{PhoneNumbers: []PhoneNumber{{Number: "+61412345678"}}}
	if !person.HasContactChannels() {
		t.Error("Expected phone to count as a contact channel")
	}
}
