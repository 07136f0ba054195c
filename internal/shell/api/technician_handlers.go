package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/pgstay/internal/core/domain"
	"github.com/artpar/pgstay/internal/shell/store"
)

// =============================================================================
// Technician Handlers
// =============================================================================

func (h *Handler) handleCreateTechnician(w http.ResponseWriter, r *http.Request) {
	var req CreateTechnicianRequest
	if !h.decode(w, r, &req) {
		return
	}

	technician, err := domain.NewTechnician(req.Name, req.PhoneNumber, req.Speciality, req.CommunityIDs)
	if err != nil {
		h.writeFailure(w, r, "Technician", err)
		return
	}

	if err := h.store.CreateTechnician(r.Context(), technician); err != nil {
		h.writeFailure(w, r, "Technician", err)
		return
	}

	h.logger.Info("technician created",
		"technician_id", technician.ID,
		"speciality", technician.Speciality,
		"communities", len(technician.CommunityIDs),
	)
	h.writeSuccess(w, http.StatusCreated, "Technician created successfully", technician)
}

func (h *Handler) handleGetTechnician(w http.ResponseWriter, r *http.Request) {
	technician, err := h.store.GetTechnician(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, r, "Technician", err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "Technician retrieved successfully", technician)
}

func (h *Handler) handleUpdateTechnician(w http.ResponseWriter, r *http.Request) {
	var patch domain.TechnicianPatch
	if !h.decode(w, r, &patch) {
		return
	}

	technician, err := h.store.GetTechnician(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, r, "Technician", err)
		return
	}

	updated, err := patch.Apply(*technician)
	if err != nil {
		h.writeFailure(w, r, "Technician", err)
		return
	}

	if !patch.IsEmpty() {
		if err := h.store.UpdateTechnician(r.Context(), &updated); err != nil {
			h.writeFailure(w, r, "Technician", err)
			return
		}
	}

	h.writeSuccess(w, http.StatusOK, "Technician updated successfully", updated)
}

func (h *Handler) handleAssignTechnician(w http.ResponseWriter, r *http.Request) {
	var req AssignTechnicianRequest
	if !h.decode(w, r, &req) {
		return
	}

	var technician *domain.Technician
	err := h.store.WithTx(r.Context(), func(tx store.Store) error {
		t, err := tx.GetTechnician(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			return err
		}
		if err := t.AssignCommunities(req.CommunityIDs); err != nil {
			return err
		}
		if err := tx.AssignTechnician(r.Context(), t.ID, req.CommunityIDs); err != nil {
			return err
		}
		technician = t
		return nil
	})
	if err != nil {
		h.writeFailure(w, r, "Technician", err)
		return
	}

	h.logger.Info("technician assigned", "technician_id", technician.ID, "communities", technician.CommunityIDs)
	h.writeSuccess(w, http.StatusOK, "Technician assigned successfully", technician)
}

func (h *Handler) handleUpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if !h.decode(w, r, &req) {
		return
	}

	technician, err := h.store.GetTechnician(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, r, "Technician", err)
		return
	}

	technician.SetAvailability(req.IsAvailable)
	if err := h.store.SetTechnicianAvailability(r.Context(), technician); err != nil {
		h.writeFailure(w, r, "Technician", err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "Technician availability updated successfully", technician)
}

func (h *Handler) handleListCommunityTechnicians(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "pgCommunityId")
	if _, err := h.store.GetCommunity(r.Context(), communityID); err != nil {
		h.writeFailure(w, r, "PG community", err)
		return
	}

	technicians, err := h.store.ListTechniciansByCommunity(r.Context(), communityID, communityRoster)
	if err != nil {
		h.writeFailure(w, r, "Technician", err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "Technicians retrieved successfully", nonNil(technicians))
}

func (h *Handler) handleListAvailableTechnicians(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "pgCommunityId")
	if _, err := h.store.GetCommunity(r.Context(), communityID); err != nil {
		h.writeFailure(w, r, "PG community", err)
		return
	}

	filter := store.AvailabilityFilter{ListOptions: communityRoster}
	if s := r.URL.Query().Get("speciality"); s != "" {
		speciality := domain.Speciality(s)
		filter.Speciality = &speciality
	}

	technicians, err := h.store.ListAvailableTechnicians(r.Context(), communityID, filter)
	if err != nil {
		h.writeFailure(w, r, "Technician", err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "Available technicians retrieved successfully", nonNil(technicians))
}

// communityRoster lists a community's technicians in one page. The
// technician query schemas declare no limit or offset.
var communityRoster = store.ListOptions{Limit: store.MaxListLimit}

func nonNil(technicians []domain.Technician) []domain.Technician {
	if technicians == nil {
		return []domain.Technician{}
	}
	return technicians
}
