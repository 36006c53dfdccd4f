package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/we-kode/mml.media/core/catalog"
	"github.com/we-kode/mml.media/model"
	"github.com/we-kode/mml.media/repository"
)

// listRequest is the body of the record list and navigation endpoints.
type listRequest struct {
	Filter    string          `json:"filter"`
	TagFilter model.TagFilter `json:"tagFilter"`
}

type navigationRequest struct {
	listRequest
	CurrentID string `json:"currentId"`
	Repeat    bool   `json:"repeat"`
	Shuffle   bool   `json:"shuffle"`
}

type folderRequest struct {
	Folders []model.RecordFolder `json:"folders"`
	Force   bool                 `json:"force"`
}

type assignRequest struct {
	Items      []string             `json:"items"`
	Folders    []model.RecordFolder `json:"folders"`
	InitGroups []string             `json:"initGroups"`
	Groups     []string             `json:"groups"`
}

// scope resolves the group visibility of the calling client. Admins see
// everything unless they filter explicitly.
func scope(r *http.Request) (filterByGroups bool, clientGroups []string) {
	claims := claimsFrom(r)
	if claims == nil {
		return true, nil
	}
	if claims.Admin {
		return false, nil
	}
	return true, claims.Groups
}

func (h *APIHandler) ListRecordsHandler(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if !decodeBody(w, r, &req) {
		return
	}

	filterByGroups, clientGroups := scope(r)
	skip, take := paging(r)
	records, err := h.catalog.List(req.Filter, req.TagFilter, filterByGroups, clientGroups, skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *APIHandler) ListFoldersHandler(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if !decodeBody(w, r, &req) {
		return
	}

	filterByGroups, clientGroups := scope(r)
	skip, take := paging(r)
	folders, err := h.catalog.ListFolders(req.TagFilter, filterByGroups, clientGroups, skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list folders")
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *APIHandler) GetRecordHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.canAccess(w, r, id) {
		return
	}

	record, err := h.catalog.Get(id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load record")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *APIHandler) NextRecordHandler(w http.ResponseWriter, r *http.Request) {
	var req navigationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	filterByGroups, clientGroups := scope(r)
	record, err := h.catalog.Next(req.CurrentID, req.Filter, req.TagFilter, filterByGroups, clientGroups, req.Repeat, req.Shuffle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve next record")
		return
	}
	if record == nil {
		writeJSON(w, http.StatusNoContent, nil)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *APIHandler) PreviousRecordHandler(w http.ResponseWriter, r *http.Request) {
	var req navigationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	filterByGroups, clientGroups := scope(r)
	record, err := h.catalog.Previous(req.CurrentID, req.Filter, req.TagFilter, filterByGroups, clientGroups, req.Repeat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve previous record")
		return
	}
	if record == nil {
		writeJSON(w, http.StatusNoContent, nil)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *APIHandler) UpdateRecordHandler(w http.ResponseWriter, r *http.Request) {
	var req catalog.RecordUpdate
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.catalog.Update(req)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, catalog.ErrLocked):
		writeError(w, http.StatusForbidden, "record is locked")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to update record")
	default:
		writeJSON(w, http.StatusOK, nil)
	}
}

func (h *APIHandler) DeleteRecordHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	force := r.URL.Query().Get("force") == "true"

	err := h.catalog.Delete(r.Context(), id, force)
	switch {
	case errors.Is(err, catalog.ErrLocked):
		writeError(w, http.StatusForbidden, "record is locked")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to delete record")
	default:
		writeJSON(w, http.StatusOK, nil)
	}
}

func (h *APIHandler) DeleteFoldersHandler(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, clientGroups := scope(r)
	if err := h.catalog.DeleteFolders(r.Context(), req.Folders, clientGroups, req.Force); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete folders")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *APIHandler) AssignRecordsHandler(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.records.Assign(req.Items, req.InitGroups, req.Groups); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to assign records")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *APIHandler) AssignFoldersHandler(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.records.AssignFolders(req.Folders, req.InitGroups, req.Groups); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to assign folders")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *APIHandler) LockRecordsHandler(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.records.Lock(req.Items); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to lock records")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *APIHandler) LockFoldersHandler(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.records.LockFolders(req.Folders); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to lock folders")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *APIHandler) AssignedGroupsHandler(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	groups, err := h.records.AssignedGroups(req.Items)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load assigned groups")
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *APIHandler) AssignedFolderGroupsHandler(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	groups, err := h.records.AssignedFolderGroups(req.Folders)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load assigned groups")
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// canAccess enforces group visibility on single-record endpoints.
func (h *APIHandler) canAccess(w http.ResponseWriter, r *http.Request, id string) bool {
	filterByGroups, clientGroups := scope(r)
	if !filterByGroups {
		return true
	}

	inGroup, err := h.records.IsInGroup(id, clientGroups)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check record access")
		return false
	}
	if !inGroup {
		writeError(w, http.StatusForbidden, "record not accessible")
		return false
	}
	return true
}
