// Package geo resolves visitor IP addresses to ISO-3166 alpha-2 country codes.
package geo

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type cacheItem struct {
	country string
	expires time.Time
}

// Service looks up countries through an ipwho.is-compatible HTTP endpoint and
// caches answers per IP.
type Service struct {
	endpoint string
	client   *http.Client
	ttl      time.Duration
	log      *zap.Logger

	mu    sync.Mutex
	cache map[string]cacheItem
}

// NewService creates a lookup service. endpoint is the URL prefix the IP is appended to.
func NewService(endpoint string, timeout, ttl time.Duration, log *zap.Logger) *Service {
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return &Service{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		ttl:      ttl,
		log:      log,
		cache:    make(map[string]cacheItem),
	}
}

// LookupCountry returns the country for ip, or "" when it cannot be determined.
func (s *Service) LookupCountry(ctx context.Context, ip string) string {
	if ip == "" || isPrivateIP(ip) {
		return ""
	}

	now := time.Now()
	s.mu.Lock()
	if item, ok := s.cache[ip]; ok && now.Before(item.expires) {
		s.mu.Unlock()
		return item.country
	}
	s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+ip, nil)
	if err != nil {
		return ""
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug("geo lookup failed", zap.String("ip", ip), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Debug("geo lookup returned non-200", zap.String("ip", ip), zap.Int("status", resp.StatusCode))
		return ""
	}

	var out struct {
		Success     bool   `json:"success"`
		CountryCode string `json:"country_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || !out.Success {
		return ""
	}

	country := NormalizeCountry(out.CountryCode)

	s.mu.Lock()
	s.cache[ip] = cacheItem{country: country, expires: now.Add(s.ttl)}
	s.mu.Unlock()

	return country
}

// NormalizeCountry upper-cases a two-letter code and rejects anything else.
func NormalizeCountry(code string) string {
	country := strings.ToUpper(strings.TrimSpace(code))
	if len(country) != 2 || country == "XX" {
		return ""
	}
	return country
}

func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified()
}
