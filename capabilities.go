package llmprovider

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed capabilities.yaml
var capabilitiesYAML []byte

// Capabilities are metadata, not enforcement: parameters outside a
// provider's range are clamped with a warning, never rejected.
// Users can override the embedded table with LoadCapabilitiesFromFile or
// RegisterProviderCapabilities.

// ProviderCapabilities describes one backend.
type ProviderCapabilities struct {
	Provider         ProviderID          `yaml:"provider"`
	LastUpdated      string              `yaml:"last_updated"` // ISO 8601 date
	Streaming        bool                `yaml:"streaming"`
	DefaultMaxTokens int                 `yaml:"default_max_tokens"`
	Constraints      ProviderConstraints `yaml:"constraints"`
}

// ProviderConstraints defines provider-wide parameter limits.
type ProviderConstraints struct {
	TemperatureMin float64 `yaml:"temperature_min"`
	TemperatureMax float64 `yaml:"temperature_max"`
	TopPMin        float64 `yaml:"top_p_min"`
	TopPMax        float64 `yaml:"top_p_max"`
}

// Clamp returns a copy of params with every set value moved into range.
// nil stays nil.
func (c ProviderConstraints) Clamp(params *RequestParams) *RequestParams {
	if params == nil {
		return nil
	}
	out := *params
	if out.Temperature != nil && c.TemperatureMax > 0 {
		t := clamp(*out.Temperature, c.TemperatureMin, c.TemperatureMax)
		out.Temperature = &t
	}
	if out.TopP != nil && c.TopPMax > 0 {
		p := clamp(*out.TopP, c.TopPMin, c.TopPMax)
		out.TopP = &p
	}
	return &out
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

type capabilitiesFile struct {
	Providers []ProviderCapabilities `yaml:"providers"`
}

// CapabilityRegistry manages provider capabilities.
type CapabilityRegistry struct {
	capabilities map[ProviderID]*ProviderCapabilities
	mu           sync.RWMutex
}

var (
	globalRegistry     *CapabilityRegistry
	globalRegistryOnce sync.Once
)

// GetCapabilityRegistry returns the global capability registry, loaded from
// the embedded table on first use.
func GetCapabilityRegistry() *CapabilityRegistry {
	globalRegistryOnce.Do(func() {
		globalRegistry = &CapabilityRegistry{
			capabilities: make(map[ProviderID]*ProviderCapabilities),
		}
		if err := globalRegistry.load(capabilitiesYAML); err != nil {
			slog.Warn("failed to load embedded capabilities", "error", err)
		}
	})
	return globalRegistry
}

func (r *CapabilityRegistry) load(data []byte) error {
	var file capabilitiesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal capabilities: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range file.Providers {
		caps := file.Providers[i]
		if caps.Provider == "" {
			return fmt.Errorf("capabilities entry %d has no provider", i)
		}
		r.capabilities[caps.Provider] = &caps
	}
	return nil
}

// GetProviderCapabilities returns capabilities for a provider.
func (r *CapabilityRegistry) GetProviderCapabilities(provider ProviderID) (*ProviderCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := r.capabilities[provider]
	if !ok {
		return nil, fmt.Errorf("no capabilities found for provider: %s", provider)
	}
	return caps, nil
}

// Constraints returns the provider's limits, or zero limits (no clamping)
// when it is unknown.
func (r *CapabilityRegistry) Constraints(provider ProviderID) ProviderConstraints {
	caps, err := r.GetProviderCapabilities(provider)
	if err != nil {
		return ProviderConstraints{}
	}
	return caps.Constraints
}

// DefaultMaxTokens returns the provider's default, or fallback when unknown
// or unset.
func (r *CapabilityRegistry) DefaultMaxTokens(provider ProviderID, fallback int) int {
	caps, err := r.GetProviderCapabilities(provider)
	if err != nil || caps.DefaultMaxTokens <= 0 {
		return fallback
	}
	return caps.DefaultMaxTokens
}

// LoadCapabilitiesFromFile merges the providers listed in a YAML file
// (same format as the embedded table) over the registry.
func (r *CapabilityRegistry) LoadCapabilitiesFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capabilities file: %w", err)
	}
	return r.load(data)
}

// RegisterProviderCapabilities programmatically registers provider capabilities.
func (r *CapabilityRegistry) RegisterProviderCapabilities(caps *ProviderCapabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[caps.Provider] = caps
}

// ClampParams clamps params to the provider's limits and logs what changed.
func ClampParams(provider ProviderID, params *RequestParams, logger *slog.Logger) *RequestParams {
	out := GetCapabilityRegistry().Constraints(provider).Clamp(params)
	if params == nil || logger == nil {
		return out
	}
	if params.Temperature != nil && *out.Temperature != *params.Temperature {
		logger.Warn("temperature clamped to provider range",
			"provider", provider, "requested", *params.Temperature, "used", *out.Temperature)
	}
	if params.TopP != nil && *out.TopP != *params.TopP {
		logger.Warn("top_p clamped to provider range",
			"provider", provider, "requested", *params.TopP, "used", *out.TopP)
	}
	return out
}

// LoadCapabilitiesFromFile calls the global registry's LoadCapabilitiesFromFile.
func LoadCapabilitiesFromFile(path string) error {
	return GetCapabilityRegistry().LoadCapabilitiesFromFile(path)
}

// RegisterProviderCapabilities calls the global registry's RegisterProviderCapabilities.
func RegisterProviderCapabilities(caps *ProviderCapabilities) {
	GetCapabilityRegistry().RegisterProviderCapabilities(caps)
}
