package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/cohort-tools/apiserver/internal/services"
	"github.com/cohort-tools/apiserver/internal/store"
	"github.com/cohort-tools/apiserver/types"
)

// UserHandler provides read access to user profiles.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService) {
	handler := NewUserHandler(userService)

	r.Get("/{id}", handler.GetUser)
}

// UserResponse wraps a user record; the password digest is never serialized.
type UserResponse struct {
	User types.User `json:"user"`
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching user")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}
