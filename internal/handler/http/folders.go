package http

import (
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// FoldersHandler обработчик папок
type FoldersHandler struct {
	folders *service.FolderService
	log     *zap.Logger
}

// NewFoldersHandler создает новый обработчик папок
func NewFoldersHandler(folders *service.FolderService, log *zap.Logger) *FoldersHandler {
	return &FoldersHandler{
		folders: folders,
		log:     log,
	}
}

// CreateFolderRequest структура запроса создания папки
type CreateFolderRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// UpdateFolderRequest structure; omitted fields are left untouched
type UpdateFolderRequest struct {
	Name       *string `json:"name,omitempty"`
	IsExpanded *bool   `json:"is_expanded,omitempty"`
}

// MoveFolderRequest структура запроса смены родителя
type MoveFolderRequest struct {
	ParentID *int64 `json:"parent_id"`
}

// ListFoldersResponse структура ответа списка папок
type ListFoldersResponse struct {
	Folders []*domain.Folder `json:"folders"`
}

// ListFolders возвращает папки пользователя
//
//	@Summary	List folders
//	@Tags		Folders
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	ListFoldersResponse
//	@Router		/api/folders [get]
func (h *FoldersHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	folders, err := h.folders.ListFolders(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if folders == nil {
		folders = []*domain.Folder{}
	}
	writeJSON(w, ListFoldersResponse{Folders: folders}, http.StatusOK)
}

// CreateFolder создает папку
//
//	@Summary	Create a folder
//	@Tags		Folders
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		CreateFolderRequest	true	"Folder"
//	@Success	201		{object}	domain.Folder
//	@Failure	400		{object}	ErrorResponse	"Invalid request data"
//	@Failure	403		{object}	ErrorResponse	"Plan limit reached"
//	@Router		/api/folders [post]
func (h *FoldersHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req CreateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	folder, err := h.folders.CreateFolder(r.Context(), userID, req.Name, req.ParentID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.log.Info("created folder", zap.Int64("folder_id", folder.ID), zap.Int64("user_id", userID))
	writeJSON(w, folder, http.StatusCreated)
}

// UpdateFolder переименовывает папку и/или меняет ее состояние
//
//	@Summary	Rename or collapse a folder
//	@Tags		Folders
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int					true	"Folder ID"
//	@Param		request	body		UpdateFolderRequest	true	"Fields to change"
//	@Success	200		{object}	domain.Folder
//	@Failure	400		{object}	ErrorResponse	"Invalid request data"
//	@Failure	404		{object}	ErrorResponse	"Folder not found"
//	@Router		/api/folders/{id} [patch]
func (h *FoldersHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	userID, folderID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req UpdateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	folder, err := h.folders.GetFolder(r.Context(), userID, folderID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if req.Name != nil {
		if folder, err = h.folders.RenameFolder(r.Context(), userID, folderID, *req.Name); err != nil {
			writeServiceError(w, h.log, err)
			return
		}
	}
	if req.IsExpanded != nil {
		if folder, err = h.folders.SetExpanded(r.Context(), userID, folderID, *req.IsExpanded); err != nil {
			writeServiceError(w, h.log, err)
			return
		}
	}
	writeJSON(w, folder, http.StatusOK)
}

// MoveFolder меняет родительскую папку
//
//	@Summary		Move a folder
//	@Description	A null parent_id moves the folder to the top level
//	@Tags			Folders
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int					true	"Folder ID"
//	@Param			request	body		MoveFolderRequest	true	"New parent"
//	@Success		200		{object}	domain.Folder
//	@Failure		400		{object}	ErrorResponse	"Cycle or unknown parent"
//	@Failure		404		{object}	ErrorResponse	"Folder not found"
//	@Router			/api/folders/{id}/parent [put]
func (h *FoldersHandler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	userID, folderID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req MoveFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	folder, err := h.folders.MoveFolder(r.Context(), userID, folderID, req.ParentID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, folder, http.StatusOK)
}

// DeleteFolder удаляет папку. Вложенные папки поднимаются на уровень выше,
// ссылки остаются без папки.
//
//	@Summary	Delete a folder
//	@Tags		Folders
//	@Security	BearerAuth
//	@Param		id	path	int	true	"Folder ID"
//	@Success	204	"Folder deleted"
//	@Failure	404	{object}	ErrorResponse	"Folder not found"
//	@Router		/api/folders/{id} [delete]
func (h *FoldersHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, folderID, ok := h.ids(w, r)
	if !ok {
		return
	}

	if err := h.folders.DeleteFolder(r.Context(), userID, folderID); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.log.Info("deleted folder", zap.Int64("folder_id", folderID), zap.Int64("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *FoldersHandler) ids(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := ownerID(w, r)
	if !ok {
		return 0, 0, false
	}
	folderID, ok := pathID(r, "id")
	if !ok {
		writeError(w, "Invalid folder ID", http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, folderID, true
}
