// Package classifier turns raw request signals into the device, browser and bot
// signals consumed by the shield resolver and the analytics pipeline.
package classifier

import (
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/pkg/useragent"
	"net/url"
	"strings"
	"time"
)

// Classification is the result of classifying one request.
type Classification struct {
	DeviceType  string
	Browser     string
	OS          string
	IsLikelyBot bool
}

// Classifier classifies requests using the User-Agent parser and timing heuristics.
type Classifier struct {
	parser     *useragent.Parser
	minElapsed time.Duration
}

// New creates a classifier. Clients reporting a page-load-to-click time below
// minElapsed are treated as automated.
func New(parser *useragent.Parser, minElapsed time.Duration) *Classifier {
	return &Classifier{
		parser:     parser,
		minElapsed: minElapsed,
	}
}

// Classify classifies a request. A zero elapsed means the client did not report timing.
func (c *Classifier) Classify(userAgent, referrer string, elapsed time.Duration) Classification {
	info := c.parser.ParseUserAgent(userAgent)

	out := Classification{
		DeviceType: info.DeviceType,
		Browser:    info.Browser,
		OS:         info.OS,
	}

	switch {
	case strings.TrimSpace(userAgent) == "":
		out.IsLikelyBot = true
	case info.IsBot:
		out.IsLikelyBot = true
	case elapsed > 0 && elapsed < c.minElapsed:
		out.IsLikelyBot = true
	}

	if out.IsLikelyBot && out.DeviceType == domain.DeviceUnknown {
		out.DeviceType = domain.DeviceBot
	}
	return out
}

// ReferrerHost reduces a referrer to its host for storage, "" when absent or malformed.
func ReferrerHost(referrer string) string {
	if referrer == "" {
		return ""
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
