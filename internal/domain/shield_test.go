package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShieldConfig_Validate(t *testing.T) {
	assert.NoError(t, ShieldConfig{Level: ShieldLevelStandard, TimerMs: 3000}.Validate())
	assert.Error(t, ShieldConfig{Level: 0}.Validate())
	assert.Error(t, ShieldConfig{Level: 4}.Validate())
	assert.Error(t, ShieldConfig{Level: 1, TimerMs: -1}.Validate())
	assert.Error(t, ShieldConfig{Level: 1, TimerMs: 60001}.Validate())
	assert.Error(t, ShieldConfig{Level: 1, Features: []ShieldFeature{"teleport"}}.Validate())
}

func TestShieldConfig_LevelsImplyFeatures(t *testing.T) {
	basic := ShieldConfig{Level: ShieldLevelBasic}
	assert.False(t, basic.Has(FeatureBasicDetection))
	assert.False(t, basic.Has(FeatureTimer))

	standard := ShieldConfig{Level: ShieldLevelStandard}
	assert.True(t, standard.Has(FeatureBasicDetection))
	assert.False(t, standard.Has(FeatureTimer))

	ultra := ShieldConfig{Level: ShieldLevelUltra, Features: []ShieldFeature{FeatureJSObfuscation}}
	assert.True(t, ultra.Has(FeatureTimer))
	assert.True(t, ultra.Has(FeatureBasicDetection))
	assert.True(t, ultra.Has(FeatureJSObfuscation))
	assert.False(t, ultra.Has(FeatureDomainRotation))
}

func TestShieldConfig_Timer(t *testing.T) {
	assert.Equal(t, 1200, ShieldConfig{Level: 1, TimerMs: 1200}.Timer())
	assert.Equal(t, DefaultTimerMs, ShieldConfig{Level: 2}.Timer())
	assert.Equal(t, DefaultUltraTimerMs, ShieldConfig{Level: 3}.Timer())
}

func TestShieldConfig_EncodeParse(t *testing.T) {
	raw, err := ShieldConfig{
		Level:    ShieldLevelStandard,
		TimerMs:  2000,
		Features: []ShieldFeature{FeatureTimer, FeatureAdaptiveContent, FeatureTimer},
	}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":2,"timer":2000,"features":["adaptive-content","timer"]}`, raw)

	parsed, err := ParseShieldConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, []ShieldFeature{FeatureAdaptiveContent, FeatureTimer}, parsed.Features)

	_, err = ParseShieldConfig("")
	assert.Error(t, err)
	_, err = ParseShieldConfig("{")
	assert.Error(t, err)
	_, err = ParseShieldConfig(`{"level":9}`)
	assert.Error(t, err)

	_, err = ShieldConfig{Level: 7}.Encode()
	assert.Error(t, err)
}

func TestDefaultShieldConfig(t *testing.T) {
	std := DefaultShieldConfig(false)
	assert.Equal(t, ShieldLevelStandard, std.Level)
	assert.Equal(t, DefaultTimerMs, std.TimerMs)
	assert.NoError(t, std.Validate())

	ultra := DefaultShieldConfig(true)
	assert.Equal(t, ShieldLevelUltra, ultra.Level)
	assert.True(t, ultra.Has(FeatureDomainRotation))
	assert.NoError(t, ultra.Validate())
}
