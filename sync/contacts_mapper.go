package sync

import (
	"context"
	"fmt"
)

// ContactsMapper maps generic pipeline contact records to the Action
// Network person payload. It embeds *SyncContext for shared sync
// configuration, the API handle is only used for merge-mode lookups.
type ContactsMapper struct {
	*SyncContext
	API *ActionNetworkFetcherAndUpdater
}

// MapContactRecord normalizes one contact record into a person payload and
// detaches its list names. When OnlyUpsertEmptyFields is set the payload is
// merged against any existing remote person found by primary email, so
// values already populated remotely are never overwritten.
func (m ContactsMapper) MapContactRecord(record ContactRecord, ctx context.Context) (MappedContact, error) {
	result := MappedContact{
		Lists: record.Lists,
	}

	person := Person{
		GivenName:  record.FirstName,
		FamilyName: record.LastName,
	}

	for _, address := range record.Addresses {
		var lines []string
		for _, line := range []string{address.Line1, address.Line2, address.Line3} {
			if line != "" {
				lines = append(lines, line)
			}
		}
		person.PostalAddresses = append(person.PostalAddresses, PostalAddress{
			AddressLines: lines,
			Locality:     address.City,
			PostalCode:   address.PostalCode,
			Country:      NormalizeCountry(address.Country),
			Region:       address.State,
		})
	}

	status := resolveSubscribeStatus(record, m.Config)
	if record.Email != "" {
		person.EmailAddresses = append(person.EmailAddresses, EmailAddress{
			Address: record.Email,
			Primary: true,
			Status:  status,
		})
	}
	// additional_emails replaces the whole email list with non-primary
	// entries, it does not append to it
	if len(record.AdditionalEmails) > 0 {
		person.EmailAddresses = nil
		for _, email := range record.AdditionalEmails {
			person.EmailAddresses = append(person.EmailAddresses, EmailAddress{
				Address: email,
				Primary: false,
			})
		}
	}

	for _, phone := range record.PhoneNumbers {
		person.PhoneNumbers = append(person.PhoneNumbers, PhoneNumber{
			Number: NormalizePhoneNumber(phone.Number, m.Config.DefaultPhoneRegion),
			Type:   phone.Type,
		})
	}

	for _, field := range record.CustomFields {
		if field.Name == "" {
			continue
		}
		if person.CustomFields == nil {
			person.CustomFields = make(map[string]string)
		}
		// first occurrence wins on a repeated name
		if _, exists := person.CustomFields[field.Name]; !exists {
			person.CustomFields[field.Name] = field.Value
		}
	}

	if len(record.Tags) > 0 {
		person.AddTags = append(person.AddTags, record.Tags...)
	}

	if m.Config.OnlyUpsertEmptyFields {
		existing, found, err := m.API.FindPersonByEmail(record.Email, ctx)
		if err != nil {
			return result, fmt.Errorf("failed to look up existing person: %w", err)
		}
		if found {
			person = MergePreservingExisting(existing, person)
			result.MergedExisting = true
		}
	}

	result.Person = person
	return result, nil
}

// MergePreservingExisting merges a freshly mapped person into an existing
// remote person such that no already populated value on the existing record
// is overwritten. Scalars fill only when empty. Email and phone entries
// merge by their natural key (address / number): new entries append, on a
// key match only empty sub-fields fill in. Postal addresses and custom
// fields are taken wholesale only when the existing record has none.
// Applying the merge to its own output changes nothing further.
func MergePreservingExisting(existing Person, fresh Person) Person {
	result := existing

	if result.GivenName == "" {
		result.GivenName = fresh.GivenName
	}
	if result.FamilyName == "" {
		result.FamilyName = fresh.FamilyName
	}

	for _, email := range fresh.EmailAddresses {
		merged := false
		for i := range result.EmailAddresses {
			if result.EmailAddresses[i].Address != email.Address {
				continue
			}
			merged = true
			if result.EmailAddresses[i].Status == "" {
				result.EmailAddresses[i].Status = email.Status
			}
			if !result.EmailAddresses[i].Primary {
				result.EmailAddresses[i].Primary = email.Primary
			}
		}
		if !merged {
			result.EmailAddresses = append(result.EmailAddresses, email)
		}
	}

	for _, phone := range fresh.PhoneNumbers {
		merged := false
		for i := range result.PhoneNumbers {
			if result.PhoneNumbers[i].Number != phone.Number {
				continue
			}
			merged = true
			if result.PhoneNumbers[i].Type == "" {
				result.PhoneNumbers[i].Type = phone.Type
			}
		}
		if !merged {
			result.PhoneNumbers = append(result.PhoneNumbers, phone)
		}
	}

	if len(result.PostalAddresses) == 0 {
		result.PostalAddresses = fresh.PostalAddresses
	}
	if len(result.CustomFields) == 0 {
		result.CustomFields = fresh.CustomFields
	}

	// add_tags is an instruction rather than remote state, carry it through
	result.AddTags = fresh.AddTags

	return result
}
