package http

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinksAPI_CRUD(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createLink(freeOwner, multiLink("My Page"))
	assert.Equal(t, "my-page", created.Slug)
	assert.Equal(t, "http://localhost:8080/my-page", created.PublicURL)
	assert.True(t, created.IsActive)
	require.Len(t, created.SubLinks, 2)

	rec := ts.do(http.MethodGet, "/api/links", nil, freeOwner)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[ListLinksResponse](t, rec)
	require.Len(t, list.Links, 1)
	assert.Equal(t, created.ID, list.Links[0].ID)

	path := fmt.Sprintf("/api/links/%d", created.ID)
	rec = ts.do(http.MethodPatch, path, map[string]interface{}{"title": "Renamed"}, freeOwner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", decodeBody[LinkResponse](t, rec).Title)

	rec = ts.do(http.MethodDelete, path, nil, freeOwner)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodGet, path, nil, freeOwner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLinksAPI_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/links", nil, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/api/links", multiLink("Anon"), 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLinksAPI_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	t.Run("plan feature", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/links", directLink("Shop", "https://shop.example.com"), freeOwner)
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "direct_links", decodeBody[ErrorResponse](t, rec).Limit)
	})

	t.Run("validation", func(t *testing.T) {
		in := multiLink("Empty")
		in.SubLinks = nil
		rec := ts.do(http.MethodPost, "/api/links", in, freeOwner)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "sub_links", decodeBody[ErrorResponse](t, rec).Field)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewBufferString("{"))
		req.Header.Set("Authorization", "Bearer "+ts.token(freeOwner))
		rec := ts.serve(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/links", map[string]string{"title": "x", "alias": "y"}, freeOwner)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/links/abc", nil, freeOwner)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("other owner", func(t *testing.T) {
		link := ts.createLink(freeOwner, multiLink("Private"))
		rec := ts.do(http.MethodGet, fmt.Sprintf("/api/links/%d", link.ID), nil, standardOwner)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("link limit", func(t *testing.T) {
		other := newTestServer(t)
		for i := 0; i < 5; i++ {
			other.createLink(freeOwner, multiLink(fmt.Sprintf("Page %d", i)))
		}
		rec := other.do(http.MethodPost, "/api/links", multiLink("One too many"), freeOwner)
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "max_links_per_page", decodeBody[ErrorResponse](t, rec).Limit)
	})
}

func TestLinksAPI_ShieldConfigInResponse(t *testing.T) {
	ts := newTestServer(t)

	in := directLink("Shielded", "https://dest.example.com")
	in.ShieldEnabled = true
	link := ts.createLink(standardOwner, in)

	require.NotNil(t, link.ShieldConfig)
	assert.Equal(t, 2, link.ShieldConfig.Level)
	assert.Equal(t, 3000, link.ShieldConfig.TimerMs)
}

func TestLinksAPI_Duplicate(t *testing.T) {
	ts := newTestServer(t)
	src := ts.createLink(freeOwner, multiLink("Links"))

	rec := ts.do(http.MethodPost, fmt.Sprintf("/api/links/%d/duplicate", src.ID), nil, freeOwner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dup := decodeBody[LinkResponse](t, rec)

	assert.Equal(t, "links-copy", dup.Slug)
	assert.Equal(t, "Links (copy)", dup.Title)
	assert.False(t, dup.IsActive)

	// The inactive copy is not publicly reachable
	rec = ts.do(http.MethodGet, "/links-copy", nil, 0)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLinksAPI_QRCode(t *testing.T) {
	ts := newTestServer(t)
	link := ts.createLink(freeOwner, multiLink("Scan Me"))

	rec := ts.do(http.MethodGet, fmt.Sprintf("/api/links/%d/qr", link.ID), nil, freeOwner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	rec = ts.do(http.MethodGet, fmt.Sprintf("/api/links/%d/qr", link.ID), nil, standardOwner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLinksAPI_MoveToFolder(t *testing.T) {
	ts := newTestServer(t)
	link := ts.createLink(freeOwner, multiLink("Filed"))

	rec := ts.do(http.MethodPost, "/api/folders", CreateFolderRequest{Name: "Work"}, freeOwner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	folderID := decodeBody[map[string]interface{}](t, rec)["id"].(float64)

	rec = ts.do(http.MethodPut, fmt.Sprintf("/api/links/%d/folder", link.ID), map[string]interface{}{"folder_id": int64(folderID)}, freeOwner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decodeBody[LinkResponse](t, rec)
	require.NotNil(t, moved.FolderID)
	assert.Equal(t, int64(folderID), *moved.FolderID)

	rec = ts.do(http.MethodPut, fmt.Sprintf("/api/links/%d/folder", link.ID), map[string]interface{}{"folder_id": nil}, freeOwner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeBody[LinkResponse](t, rec).FolderID)

	rec = ts.do(http.MethodPut, fmt.Sprintf("/api/links/%d/folder", link.ID), map[string]interface{}{"folder_id": 9999}, freeOwner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/links", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := ts.serve(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
