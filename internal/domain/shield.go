package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ShieldFeature is one protective behaviour a shield config can enable.
type ShieldFeature string

const (
	FeatureTimer           ShieldFeature = "timer"
	FeatureBasicDetection  ShieldFeature = "basic-detection"
	FeatureAdaptiveContent ShieldFeature = "adaptive-content"
	FeatureDomainRotation  ShieldFeature = "domain-rotation"
	FeatureJSObfuscation   ShieldFeature = "js-obfuscation"
	FeatureAIDetection     ShieldFeature = "ai-detection"
)

// Shield levels
const (
	ShieldLevelBasic    = 1
	ShieldLevelStandard = 2
	ShieldLevelUltra    = 3
)

const (
	DefaultTimerMs      = 3000
	DefaultUltraTimerMs = 5000
	maxTimerMs          = 60000
)

var knownFeatures = map[ShieldFeature]bool{
	FeatureTimer:           true,
	FeatureBasicDetection:  true,
	FeatureAdaptiveContent: true,
	FeatureDomainRotation:  true,
	FeatureJSObfuscation:   true,
	FeatureAIDetection:     true,
}

// impliedFeatures holds what each level inherits from the levels below it.
var impliedFeatures = map[int][]ShieldFeature{
	ShieldLevelBasic:    nil,
	ShieldLevelStandard: {FeatureBasicDetection},
	ShieldLevelUltra:    {FeatureTimer, FeatureBasicDetection},
}

// ShieldConfig is the typed form of the shield_config column.
type ShieldConfig struct {
	Level    int             `json:"level"`
	TimerMs  int             `json:"timer"`
	Features []ShieldFeature `json:"features"`
}

// DefaultShieldConfig returns the config assigned to newly shielded links.
func DefaultShieldConfig(ultra bool) ShieldConfig {
	if ultra {
		return ShieldConfig{
			Level:   ShieldLevelUltra,
			TimerMs: DefaultUltraTimerMs,
			Features: []ShieldFeature{
				FeatureTimer, FeatureBasicDetection, FeatureAdaptiveContent,
				FeatureDomainRotation, FeatureJSObfuscation, FeatureAIDetection,
			},
		}
	}
	return ShieldConfig{
		Level:    ShieldLevelStandard,
		TimerMs:  DefaultTimerMs,
		Features: []ShieldFeature{FeatureTimer, FeatureBasicDetection},
	}
}

// Validate checks level, timer range and feature names.
func (c ShieldConfig) Validate() error {
	if c.Level < ShieldLevelBasic || c.Level > ShieldLevelUltra {
		return fmt.Errorf("shield level must be between %d and %d, got %d", ShieldLevelBasic, ShieldLevelUltra, c.Level)
	}
	if c.TimerMs < 0 || c.TimerMs > maxTimerMs {
		return fmt.Errorf("shield timer must be between 0 and %d ms, got %d", maxTimerMs, c.TimerMs)
	}
	for _, f := range c.Features {
		if !knownFeatures[f] {
			return fmt.Errorf("unknown shield feature %q", f)
		}
	}
	return nil
}

// EffectiveFeatures returns the explicit features plus the ones implied by the level.
func (c ShieldConfig) EffectiveFeatures() map[ShieldFeature]bool {
	set := make(map[ShieldFeature]bool, len(c.Features)+2)
	for _, f := range impliedFeatures[c.Level] {
		set[f] = true
	}
	for _, f := range c.Features {
		set[f] = true
	}
	return set
}

// Has reports whether the feature is enabled, directly or through the level.
func (c ShieldConfig) Has(f ShieldFeature) bool {
	return c.EffectiveFeatures()[f]
}

// Timer returns the configured delay, falling back to the level default.
func (c ShieldConfig) Timer() int {
	if c.TimerMs > 0 {
		return c.TimerMs
	}
	if c.Level >= ShieldLevelUltra {
		return DefaultUltraTimerMs
	}
	return DefaultTimerMs
}

// Encode serialises the config in its stored JSON form with sorted, deduplicated features.
func (c ShieldConfig) Encode() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	seen := make(map[ShieldFeature]bool, len(c.Features))
	features := make([]ShieldFeature, 0, len(c.Features))
	for _, f := range c.Features {
		if !seen[f] {
			seen[f] = true
			features = append(features, f)
		}
	}
	sort.Slice(features, func(i, j int) bool { return features[i] < features[j] })
	c.Features = features

	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode shield config: %w", err)
	}
	return string(b), nil
}

// ParseShieldConfig decodes and validates a stored shield config.
func ParseShieldConfig(raw string) (ShieldConfig, error) {
	var c ShieldConfig
	if raw == "" {
		return c, fmt.Errorf("empty shield config")
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return c, fmt.Errorf("failed to parse shield config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
