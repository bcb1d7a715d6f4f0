package http

import (
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/shield"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisit_MultiLinkPage(t *testing.T) {
	ts := newTestServer(t)
	desc := "Hello **world** <script>alert(1)</script>"
	in := multiLink("Bio")
	in.Description = &desc
	link := ts.createLink(freeOwner, in)

	rec := ts.do(http.MethodGet, "/bio", nil, 0)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<strong>world</strong>")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, fmt.Sprintf(`href="/go/bio/%d"`, link.SubLinks[0].ID))
	assert.Contains(t, body, "Shop")

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == visitorCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "visitor cookie is issued")

	visits := ts.processor.recorded()
	require.Len(t, visits, 1)
	assert.Equal(t, domain.EventView, visits[0].Kind)
	assert.Equal(t, link.ID, visits[0].LinkID)
	assert.Equal(t, "desktop", visits[0].DeviceType)
}

func TestVisit_UnknownSlug(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/nope", nil, 0)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, ts.processor.recorded(), "no event for unknown slugs")
}

func TestVisit_DirectPassThrough(t *testing.T) {
	ts := newTestServer(t)
	ts.createLink(standardOwner, directLink("Shop", "https://shop.example.com/sale"))

	req := httptest.NewRequest(http.MethodGet, "/shop", nil)
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Referer", "https://www.instagram.com/someone")
	req.Header.Set("CF-IPCountry", "fr")
	rec := ts.serve(req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop.example.com/sale", rec.Header().Get("Location"))

	visits := ts.processor.recorded()
	require.Len(t, visits, 1)
	assert.Equal(t, domain.EventClick, visits[0].Kind)
	assert.Equal(t, string(shield.KindPassThrough), visits[0].Decision)
	assert.Equal(t, "instagram.com", visits[0].Referrer)
	assert.Equal(t, "FR", visits[0].Country)
}

func TestVisit_ShieldDelay(t *testing.T) {
	ts := newTestServer(t)
	in := directLink("Wait", "https://dest.example.com/page")
	in.ShieldEnabled = true
	ts.createLink(standardOwner, in)

	rec := ts.do(http.MethodGet, "/wait", nil, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `href="https://dest.example.com/page"`)
	assert.Contains(t, rec.Body.String(), "http-equiv=\"refresh\"")

	visits := ts.processor.recorded()
	require.Len(t, visits, 1)
	assert.Equal(t, string(shield.KindDelay), visits[0].Decision)
}

func TestVisit_UltraBlocksBots(t *testing.T) {
	ts := newTestServer(t)
	in := directLink("Ultra", "https://secret.example.com/offer")
	in.IsUltraLink = true
	ts.createLink(premiumOwner, in)

	req := httptest.NewRequest(http.MethodGet, "/ultra", nil)
	req.Header.Set("User-Agent", "")
	rec := ts.serve(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	visits := ts.processor.recorded()
	require.Len(t, visits, 1)
	assert.Equal(t, string(shield.KindBlock), visits[0].Decision)
}

func TestVisit_UltraObfuscatesDestination(t *testing.T) {
	ts := newTestServer(t)
	in := directLink("Ultra", "https://secret.example.com/offer")
	in.IsUltraLink = true
	ts.createLink(premiumOwner, in)

	rec := ts.do(http.MethodGet, "/ultra", nil, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "secret.example.com")
	assert.Contains(t, body, "atob(")
	assert.NotContains(t, body, "http-equiv=\"refresh\"")
}

func TestVisit_DomainRotation(t *testing.T) {
	ts := newTestServer(t)
	in := directLink("Rotate", "https://dest.example.com")
	in.ShieldEnabled = true
	in.ShieldConfig = &domain.ShieldConfig{Level: domain.ShieldLevelBasic, Features: []domain.ShieldFeature{domain.FeatureDomainRotation}}
	ts.createLink(standardOwner, in)

	req := httptest.NewRequest(http.MethodGet, "http://links.example/rotate", nil)
	req.Header.Set("User-Agent", browserUA)
	rec := ts.serve(req)
	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.True(t,
		location == "http://l1.example/rotate" || location == "http://l2.example/rotate",
		"unexpected location %q", location)

	// Arriving on a pool host finishes the redirect
	req = httptest.NewRequest(http.MethodGet, "http://l2.example/rotate", nil)
	req.Header.Set("User-Agent", browserUA)
	rec = ts.serve(req)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://dest.example.com", rec.Header().Get("Location"))
}

func TestSubLinkClick(t *testing.T) {
	ts := newTestServer(t)
	link := ts.createLink(freeOwner, multiLink("Hub"))
	shop := link.SubLinks[1]

	rec := ts.do(http.MethodGet, fmt.Sprintf("/go/hub/%d", shop.ID), nil, 0)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Location"))

	visits := ts.processor.recorded()
	require.Len(t, visits, 1)
	assert.Equal(t, domain.EventClick, visits[0].Kind)
	require.NotNil(t, visits[0].SubLinkID)
	assert.Equal(t, shop.ID, *visits[0].SubLinkID)

	rec = ts.do(http.MethodGet, "/go/hub/999999", nil, 0)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(http.MethodGet, fmt.Sprintf("/go/missing/%d", shop.ID), nil, 0)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.createLink(standardOwner, directLink("Plain", "https://plain.example.com"))
	in := directLink("Timed", "https://timed.example.com")
	in.ShieldEnabled = true
	ts.createLink(standardOwner, in)

	rec := ts.do(http.MethodPost, "/resolve/plain", nil, 0)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decodeBody[shield.Decision](t, rec)
	assert.Equal(t, shield.KindPassThrough, d.Kind)
	assert.Equal(t, "https://plain.example.com", d.DestinationURL)

	rec = ts.do(http.MethodPost, "/resolve/timed", ResolveRequest{ElapsedMs: 2000, VisitorID: "v-1"}, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	d = decodeBody[shield.Decision](t, rec)
	assert.Equal(t, shield.KindDelay, d.Kind)
	assert.Equal(t, 3000, d.TimerMs)

	rec = ts.do(http.MethodPost, "/resolve/missing", nil, 0)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/resolve/plain", map[string]string{"unexpected": "x"}, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Len(t, ts.processor.recorded(), 2)
}

func TestResolveEndpoint_FastClickIsBot(t *testing.T) {
	ts := newTestServer(t)
	in := directLink("Basic", "https://basic.example.com")
	in.ShieldEnabled = true
	in.ShieldConfig = &domain.ShieldConfig{Level: domain.ShieldLevelStandard}
	ts.createLink(standardOwner, in)

	rec := ts.do(http.MethodPost, "/resolve/basic", ResolveRequest{ElapsedMs: 20}, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decodeBody[shield.Decision](t, rec)
	assert.Equal(t, shield.KindPassThrough, d.Kind, "basic detection annotates, never blocks")
	assert.True(t, d.BotSuspected)
}

func TestEventsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	link := ts.createLink(freeOwner, multiLink("Events"))
	subID := link.SubLinks[0].ID

	rec := ts.do(http.MethodPost, "/api/events", EventRequest{Slug: "events", Kind: domain.EventClick, SubLinkID: &subID}, 0)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	visits := ts.processor.recorded()
	require.Len(t, visits, 1)
	assert.Equal(t, domain.EventClick, visits[0].Kind)
	assert.Equal(t, subID, *visits[0].SubLinkID)

	rec = ts.do(http.MethodPost, "/api/events", EventRequest{Slug: "events", Kind: "scroll"}, 0)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "kind", decodeBody[ErrorResponse](t, rec).Field)

	other := int64(424242)
	rec = ts.do(http.MethodPost, "/api/events", EventRequest{Slug: "events", Kind: domain.EventView, SubLinkID: &other}, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/events", EventRequest{Slug: "missing", Kind: domain.EventView}, 0)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Len(t, ts.processor.recorded(), 1)
}

func TestVisit_RootIsNotASlug(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/", nil, 0)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, ts.processor.recorded())
}
