package http

import (
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/service"
	"net/http"
	"strings"

	"github.com/samber/lo"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// LinksHandler обработчик для работы со ссылками
type LinksHandler struct {
	links   *service.LinkService
	folders *service.FolderService
	log     *zap.Logger
	baseURL string
	qrSize  int
}

// NewLinksHandler создает новый обработчик ссылок
func NewLinksHandler(links *service.LinkService, folders *service.FolderService, log *zap.Logger, baseURL string, qrSize int) *LinksHandler {
	if qrSize <= 0 {
		qrSize = 256
	}
	return &LinksHandler{
		links:   links,
		folders: folders,
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		qrSize:  qrSize,
	}
}

// LinkResponse ссылка с разобранным shield config и публичным URL
type LinkResponse struct {
	*domain.Link
	ShieldConfig *domain.ShieldConfig `json:"shield_config,omitempty"`
	PublicURL    string               `json:"public_url"`
}

// ListLinksResponse структура ответа списка ссылок
type ListLinksResponse struct {
	Links []LinkResponse `json:"links"`
}

// MoveLinkRequest структура запроса перемещения ссылки в папку
type MoveLinkRequest struct {
	FolderID *int64 `json:"folder_id"`
}

func (h *LinksHandler) toResponse(link *domain.Link) LinkResponse {
	resp := LinkResponse{Link: link, PublicURL: h.baseURL + "/" + link.Slug}
	if link.ShieldConfig != nil {
		if cfg, err := domain.ParseShieldConfig(*link.ShieldConfig); err == nil {
			resp.ShieldConfig = &cfg
		}
	}
	return resp
}

// CreateLink создает новую ссылку
//
//	@Summary		Create a link
//	@Description	Create a direct link or a multi-link page
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		service.CreateLinkInput	true	"Link creation request"
//	@Success		201		{object}	LinkResponse			"Link created successfully"
//	@Failure		400		{object}	ErrorResponse			"Invalid request data"
//	@Failure		401		{object}	ErrorResponse			"Authentication required"
//	@Failure		403		{object}	ErrorResponse			"Plan limit reached"
//	@Failure		409		{object}	ErrorResponse			"No free slug"
//	@Router			/api/links [post]
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req service.CreateLinkInput
	if err := decodeJSON(r, &req); err != nil {
		h.log.Debug("invalid create link request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	link, err := h.links.CreateLink(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.log.Info("created link", zap.String("slug", link.Slug), zap.Int64("user_id", userID))
	writeJSON(w, h.toResponse(link), http.StatusCreated)
}

// ListLinks возвращает список ссылок пользователя
//
//	@Summary		List links
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	ListLinksResponse
//	@Failure		401	{object}	ErrorResponse	"Authentication required"
//	@Router			/api/links [get]
func (h *LinksHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	links, err := h.links.ListLinks(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, ListLinksResponse{Links: lo.Map(links, func(l *domain.Link, _ int) LinkResponse {
		return h.toResponse(l)
	})}, http.StatusOK)
}

// GetLink возвращает ссылку по ID
//
//	@Summary		Get a link
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Link ID"
//	@Success		200	{object}	LinkResponse
//	@Failure		404	{object}	ErrorResponse	"Link not found"
//	@Router			/api/links/{id} [get]
func (h *LinksHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	userID, linkID, ok := h.ids(w, r)
	if !ok {
		return
	}

	link, err := h.links.GetLink(r.Context(), userID, linkID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, h.toResponse(link), http.StatusOK)
}

// UpdateLink обновляет ссылку
//
//	@Summary		Update a link
//	@Description	Only the fields present in the body are changed
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int						true	"Link ID"
//	@Param			request	body		service.UpdateLinkInput	true	"Fields to change"
//	@Success		200		{object}	LinkResponse
//	@Failure		400		{object}	ErrorResponse	"Invalid request data"
//	@Failure		403		{object}	ErrorResponse	"Plan limit reached"
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Router			/api/links/{id} [patch]
func (h *LinksHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	userID, linkID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req service.UpdateLinkInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	link, err := h.links.UpdateLink(r.Context(), userID, linkID, req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.log.Info("updated link", zap.Int64("link_id", linkID), zap.Int64("user_id", userID))
	writeJSON(w, h.toResponse(link), http.StatusOK)
}

// DeleteLink удаляет ссылку
//
//	@Summary		Delete a link
//	@Tags			Links
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Link ID"
//	@Success		204	"Link deleted successfully"
//	@Failure		404	{object}	ErrorResponse	"Link not found"
//	@Router			/api/links/{id} [delete]
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	userID, linkID, ok := h.ids(w, r)
	if !ok {
		return
	}

	if err := h.links.DeleteLink(r.Context(), userID, linkID); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.log.Info("deleted link", zap.Int64("link_id", linkID), zap.Int64("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateLink создает неактивную копию ссылки
//
//	@Summary		Duplicate a link
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Link ID"
//	@Success		201	{object}	LinkResponse
//	@Failure		403	{object}	ErrorResponse	"Plan limit reached"
//	@Failure		404	{object}	ErrorResponse	"Link not found"
//	@Router			/api/links/{id}/duplicate [post]
func (h *LinksHandler) DuplicateLink(w http.ResponseWriter, r *http.Request) {
	userID, linkID, ok := h.ids(w, r)
	if !ok {
		return
	}

	link, err := h.links.DuplicateLink(r.Context(), userID, linkID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.log.Info("duplicated link", zap.Int64("source_id", linkID), zap.String("slug", link.Slug))
	writeJSON(w, h.toResponse(link), http.StatusCreated)
}

// QRCode возвращает PNG с QR кодом публичного URL ссылки
//
//	@Summary		QR code of a link
//	@Tags			Links
//	@Produce		png
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Link ID"
//	@Success		200	"PNG image"
//	@Failure		404	{object}	ErrorResponse	"Link not found"
//	@Router			/api/links/{id}/qr [get]
func (h *LinksHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	userID, linkID, ok := h.ids(w, r)
	if !ok {
		return
	}

	link, err := h.links.GetLink(r.Context(), userID, linkID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	png, err := qrcode.Encode(h.baseURL+"/"+link.Slug, qrcode.Medium, h.qrSize)
	if err != nil {
		h.log.Error("failed to encode qr code", zap.Int64("link_id", linkID), zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// MoveLink перемещает ссылку в папку или убирает из папки
//
//	@Summary		Move a link to a folder
//	@Description	A null folder_id removes the link from its folder
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int				true	"Link ID"
//	@Param			request	body		MoveLinkRequest	true	"Target folder"
//	@Success		200		{object}	LinkResponse
//	@Failure		400		{object}	ErrorResponse	"Unknown folder"
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Router			/api/links/{id}/folder [put]
func (h *LinksHandler) MoveLink(w http.ResponseWriter, r *http.Request) {
	userID, linkID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req MoveLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	link, err := h.folders.MoveLink(r.Context(), userID, linkID, req.FolderID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, h.toResponse(link), http.StatusOK)
}

func (h *LinksHandler) ids(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := ownerID(w, r)
	if !ok {
		return 0, 0, false
	}
	linkID, ok := pathID(r, "id")
	if !ok {
		writeError(w, "Invalid link ID", http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, linkID, true
}
