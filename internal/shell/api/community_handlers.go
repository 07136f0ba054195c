package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/pgstay/internal/core/auth"
	"github.com/artpar/pgstay/internal/core/domain"
	"github.com/artpar/pgstay/internal/shell/api/middleware"
	"github.com/artpar/pgstay/internal/shell/store"
)

// =============================================================================
// Community Handlers
// =============================================================================

func (h *Handler) handleCreateCommunity(w http.ResponseWriter, r *http.Request) {
	var req CreateCommunityRequest
	if !h.decode(w, r, &req) {
		return
	}

	ac := auth.FromContext(r.Context())
	community, err := domain.NewCommunity(req.Name, req.Address, req.City, ac.UserID)
	if err != nil {
		h.writeFailure(w, r, "PG community", err)
		return
	}

	if err := h.store.CreateCommunity(r.Context(), community); err != nil {
		h.writeFailure(w, r, "PG community", err)
		return
	}

	h.logger.Info("community created", "community_id", community.ID, "owner_id", community.OwnerID)
	h.writeSuccess(w, http.StatusCreated, "PG community created successfully", community)
}

func (h *Handler) handleListCommunities(w http.ResponseWriter, r *http.Request) {
	communities, err := h.store.ListCommunities(r.Context(), listOptions(r))
	if err != nil {
		h.writeFailure(w, r, "PG community", err)
		return
	}
	if communities == nil {
		communities = []domain.Community{}
	}

	h.writeSuccess(w, http.StatusOK, "PG communities retrieved successfully", communities)
}

func (h *Handler) handleGetCommunity(w http.ResponseWriter, r *http.Request) {
	community, err := h.store.GetCommunity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, r, "PG community", err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "PG community retrieved successfully", community)
}

func (h *Handler) handleUpdateCommunity(w http.ResponseWriter, r *http.Request) {
	var patch domain.CommunityPatch
	if !h.decode(w, r, &patch) {
		return
	}

	community, err := h.store.GetCommunity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, r, "PG community", err)
		return
	}

	if !auth.CanModifyCommunity(auth.FromContext(r.Context()), *community) {
		h.writeError(w, http.StatusForbidden, middleware.MessageForbidden)
		return
	}

	updated, err := patch.Apply(*community)
	if err != nil {
		h.writeFailure(w, r, "PG community", err)
		return
	}

	if err := h.store.UpdateCommunity(r.Context(), &updated); err != nil {
		h.writeFailure(w, r, "PG community", err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "PG community updated successfully", updated)
}

// listOptions reads limit and offset from the query. The validation gate
// guarantees both are digit strings when present.
func listOptions(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}
	return opts.Normalize()
}
