package handler

import (
	"net/http"

	"codeprep/internal/app/access"
	"codeprep/internal/app/service"
	"codeprep/internal/common"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(us *service.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

// RegisterRoutes expects an authenticated router.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Put("/me", h.updateMe)
	r.Get("/me/stats", h.stats)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Profile(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.userService.UpdateProfile(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.userService.Stats(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}
