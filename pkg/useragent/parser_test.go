package useragent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseUserAgent(t *testing.T) {
	p := NewDefaultParser(zap.NewNop())

	tests := []struct {
		name       string
		ua         string
		deviceType string
		browser    string
		os         string
		bot        bool
	}{
		{
			name:       "desktop chrome",
			ua:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			deviceType: "desktop",
			browser:    "Chrome",
			os:         "Windows",
		},
		{
			name:       "iphone safari",
			ua:         "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			deviceType: "mobile",
			browser:    "Mobile Safari",
			os:         "iOS",
		},
		{
			name:       "ipad",
			ua:         "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
			deviceType: "tablet",
			os:         "iOS",
		},
		{
			name:       "googlebot",
			ua:         "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			deviceType: "bot",
			bot:        true,
		},
		{
			name:       "curl",
			ua:         "curl/8.4.0",
			deviceType: "bot",
			bot:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := p.ParseUserAgent(tt.ua)
			assert.Equal(t, tt.deviceType, info.DeviceType)
			assert.Equal(t, tt.bot, info.IsBot)
			if tt.browser != "" {
				assert.Equal(t, tt.browser, info.Browser)
			}
			if tt.os != "" {
				assert.Equal(t, tt.os, info.OS)
			}
			assert.Equal(t, tt.ua, info.Raw)
		})
	}
}

func TestParseUserAgent_Empty(t *testing.T) {
	info := NewDefaultParser(zap.NewNop()).ParseUserAgent("   ")
	assert.Equal(t, "unknown", info.DeviceType)
	assert.Equal(t, "unknown", info.Browser)
	assert.False(t, info.IsBot)
}

func TestNewParser(t *testing.T) {
	log := zap.NewNop()

	p, err := NewParser("", log)
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = NewParser(filepath.Join(t.TempDir(), "missing.yaml"), log)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "regexes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`user_agent_parsers:
  - regex: '(LinkHubTest)/(\d+)\.(\d+)'
os_parsers:
  - regex: '(Plan9)'
device_parsers:
  - regex: '(LinkHubPhone)'
    device_replacement: 'Phone'
`), 0o600))

	p, err = NewParser(path, log)
	require.NoError(t, err)
	info := p.ParseUserAgent("LinkHubTest/1.2 (Plan9; LinkHubPhone)")
	assert.Equal(t, "LinkHubTest", info.Browser)
	assert.Equal(t, "Plan9", info.OS)
	assert.Equal(t, "mobile", info.DeviceType)
}
