package sync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/config"
)

type Config struct {
	API APISettings
	// CampaignOriginSystem overrides the origin_system attribution on
	// advocacy campaigns created by this connector.
	// Empty means the Hotglue placeholder is used.
	CampaignOriginSystem string
	// OnlyUpsertEmptyFields enables merge-mode normalization: values already
	// populated on a matching remote person are never overwritten.
	OnlyUpsertEmptyFields bool
	// HaltOnError makes the sink return errors instead of converting them
	// into failed per-record outcomes.
	HaltOnError bool
	// DefaultPhoneRegion enables E.164 phone number normalization using the
	// given ISO region (e.g. "US", "AU"). Empty disables normalization.
	DefaultPhoneRegion string
	// LegacySubscribeStatuses extends the recognised subscribe_status values
	// for sources that still send historic spellings.
	LegacySubscribeStatuses []string
}

type APISettings struct {
	Keys struct {
		ActionNetwork string
	}
	Endpoints struct {
		ActionNetwork string
	}
}

// Validate checks the config holds everything needed to talk to the API.
func (c Config) Validate() error {
	if c.API.Keys.ActionNetwork == "" {
		return errors.New("missing required api key for actionnetwork")
	}
	return nil
}

// Endpoint returns the configured API root, defaulting to the public
// Action Network endpoint.
func (c Config) Endpoint() string {
	if c.API.Endpoints.ActionNetwork != "" {
		return c.API.Endpoints.ActionNetwork
	}
	return DefaultAPIEndpoint
}

// OriginSystem returns the origin_system to attribute to campaigns created
// by this connector.
func (c Config) OriginSystem() string {
	if c.CampaignOriginSystem != "" {
		return c.CampaignOriginSystem
	}
	return PlaceholderOriginSystem
}

// ConfigFile wraps a named YAML config source.
type ConfigFile struct {
	Name   string
	Reader io.Reader
	Length int
}

type ConfigUnmarshaler interface {
	Unmarshal(compev CompositeEnvVar, sources ...ConfigFile) (Config, error)
}

type CompositeEnvVar interface {
	LookupEnv(child string) (string, bool)
}

// JSONCompositeEnvVar resolves child values from a parent environment
// variable holding a JSON object, so a deployment can carry the whole
// connector secret set in a single env var.
type JSONCompositeEnvVar struct {
	Parent string
}

func (c JSONCompositeEnvVar) LookupEnv(child string) (string, bool) {
	if c.Parent != "" {
		s := os.Getenv(c.Parent)
		if s != "" {
			m := make(map[string]string)
			err := json.Unmarshal([]byte(s), &m)
			if err == nil {
				v, exists := m[child]
				return v, exists
			}
		}
	}
	return "", false
}

type YAMLConfigUnmarshaler struct{}

func (u YAMLConfigUnmarshaler) Unmarshal(compev CompositeEnvVar, sources ...ConfigFile) (Config, error) {
	var result Config
	var options []config.YAMLOption
	for _, s := range sources {
		if s.Length > 0 {
			options = append(options, config.Source(s.Reader))
		}
	}
	options = append(options, config.Expand(compev.LookupEnv))
	yaml, err := config.NewYAML(options...)
	if err != nil {
		return result, fmt.Errorf("failed to read yaml config %w", err)
	}
	readError := func(key string, cause error) error {
		return fmt.Errorf("failed to read '%s' from yaml config %w", key, cause)
	}
	key := "api"
	err = yaml.Get(key).Populate(&result.API)
	if err != nil {
		return result, readError(key, err)
	}
	key = "campaignOriginSystem"
	result.CampaignOriginSystem = yaml.Get(key).String()
	key = "onlyUpsertEmptyFields"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.OnlyUpsertEmptyFields)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "haltOnError"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.HaltOnError)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "defaultPhoneRegion"
	result.DefaultPhoneRegion = yaml.Get(key).String()
	key = "legacySubscribeStatuses"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.LegacySubscribeStatuses)
		if err != nil {
			return result, readError(key, err)
		}
	}

	return result, result.Validate()
}

// LoadConfigFile loads and validates a connector config from a YAML file,
// expanding env var references through the provided CompositeEnvVar.
func LoadConfigFile(path string, compev CompositeEnvVar) (Config, error) {
	var result Config
	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("failed to read config file %q %w", path, err)
	}
	source := ConfigFile{
		Name:   path,
		Reader: bytes.NewReader(data),
		Length: len(data),
	}
	return YAMLConfigUnmarshaler{}.Unmarshal(compev, source)
}
