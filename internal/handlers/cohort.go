package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/cohort-tools/apiserver/internal/services"
	"github.com/cohort-tools/apiserver/internal/store"
	"github.com/cohort-tools/apiserver/types"
)

// CohortHandler provides CRUD handlers for cohorts.
type CohortHandler struct {
	cohortService *services.CohortService
}

func NewCohortHandler(cohortService *services.CohortService) *CohortHandler {
	return &CohortHandler{cohortService: cohortService}
}

// CohortRouter registers cohort routes on the given router.
func CohortRouter(r chi.Router, cohortService *services.CohortService) {
	handler := NewCohortHandler(cohortService)

	r.Get("/", handler.ListCohorts)
	r.Post("/", handler.CreateCohort)
	r.Route("/{cohortId}", func(r chi.Router) {
		r.Get("/", handler.GetCohort)
		r.Put("/", handler.UpdateCohort)
		r.Delete("/", handler.DeleteCohort)
	})
}

func (h *CohortHandler) ListCohorts(w http.ResponseWriter, r *http.Request) {
	cohorts, err := h.cohortService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching cohorts")
		return
	}
	writeJSON(w, http.StatusOK, cohorts)
}

func (h *CohortHandler) GetCohort(w http.ResponseWriter, r *http.Request) {
	id, err := parseCohortID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cohort id")
		return
	}

	cohort, err := h.cohortService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Cohort not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching cohort")
		return
	}
	writeJSON(w, http.StatusOK, cohort)
}

func (h *CohortHandler) CreateCohort(w http.ResponseWriter, r *http.Request) {
	var cohort types.Cohort
	if err := json.NewDecoder(r.Body).Decode(&cohort); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.cohortService.Create(r.Context(), cohort)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating cohort")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CohortHandler) UpdateCohort(w http.ResponseWriter, r *http.Request) {
	id, err := parseCohortID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cohort id")
		return
	}

	var cohort types.Cohort
	if err := json.NewDecoder(r.Body).Decode(&cohort); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cohort.ID = id

	updated, err := h.cohortService.Update(r.Context(), cohort)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Cohort not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error updating cohort")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *CohortHandler) DeleteCohort(w http.ResponseWriter, r *http.Request) {
	id, err := parseCohortID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cohort id")
		return
	}

	if err := h.cohortService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Cohort not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error deleting cohort")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseCohortID(r *http.Request) (bson.ObjectID, error) {
	return bson.ObjectIDFromHex(chi.URLParam(r, "cohortId"))
}
