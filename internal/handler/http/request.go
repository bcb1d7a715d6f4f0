package http

import (
	"LinkHub-Backend/internal/auth"
	"LinkHub-Backend/internal/geo"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	visitorCookie    = "lh_vid"
	visitorCookieTTL = 365 * 24 * time.Hour
	elapsedHeader    = "X-Elapsed-Ms"
)

// extractIPAddress извлекает IP адрес клиента из запроса
func extractIPAddress(r *http.Request) string {
	// Проверяем заголовки прокси в порядке приоритета
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For может содержать список IP через запятую
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	// Fallback к RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// headerCountry returns the country set by an edge proxy, "" when absent.
func headerCountry(r *http.Request) string {
	if c := geo.NormalizeCountry(r.Header.Get("CF-IPCountry")); c != "" {
		return c
	}
	return geo.NormalizeCountry(r.Header.Get("X-Country-Code"))
}

// visitorID returns the visitor cookie value, issuing a new one when missing.
func visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorCookieTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return id
}

// elapsedSincePageLoad reads the client-reported page-load-to-click time.
// Zero means the client did not report it.
func elapsedSincePageLoad(r *http.Request) time.Duration {
	raw := r.Header.Get(elapsedHeader)
	if raw == "" {
		raw = r.URL.Query().Get("elapsed_ms")
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// pathID parses a numeric path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ownerID returns the authenticated owner, writing 401 when missing.
func ownerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return 0, false
	}
	return id, true
}
