package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/we-kode/mml.media/model"
	"github.com/we-kode/mml.media/repository"
)

func (h *APIHandler) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	skip, take := paging(r)
	groups, err := h.groups.List(r.URL.Query().Get("filter"), skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *APIHandler) GetGroupHandler(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(mux.Vars(r)["id"])
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load group")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *APIHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	var group model.Group
	if !decodeBody(w, r, &group) {
		return
	}
	if group.Name == "" {
		writeError(w, http.StatusBadRequest, "group name required")
		return
	}

	if err := h.groups.Create(&group); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (h *APIHandler) UpdateGroupHandler(w http.ResponseWriter, r *http.Request) {
	var group model.Group
	if !decodeBody(w, r, &group) {
		return
	}
	group.ID = mux.Vars(r)["id"]

	err := h.groups.Update(&group)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update group")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *APIHandler) DeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete group")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
