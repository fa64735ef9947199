package handler

import (
	"net/http"

	"codeprep/internal/app/access"
	"codeprep/internal/app/service"
	"codeprep/internal/common"

	"github.com/go-chi/chi/v5"
)

type InterviewHandler struct {
	interviewService *service.InterviewService
}

func NewInterviewHandler(is *service.InterviewService) *InterviewHandler {
	return &InterviewHandler{interviewService: is}
}

// RegisterRoutes expects an authenticated router.
func (h *InterviewHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{interviewID}", h.get)
	r.Put("/{interviewID}", h.update)
	r.Post("/{interviewID}/messages", h.sendMessage)
}

func (h *InterviewHandler) list(w http.ResponseWriter, r *http.Request) {
	interviews, err := h.interviewService.List(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, interviews)
}

func (h *InterviewHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateInterviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	iv, err := h.interviewService.Create(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, iv)
}

func (h *InterviewHandler) get(w http.ResponseWriter, r *http.Request) {
	iv, err := h.interviewService.Get(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "interviewID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, iv)
}

func (h *InterviewHandler) update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateInterviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	iv, err := h.interviewService.Update(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "interviewID"), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, iv)
}

func (h *InterviewHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req service.MessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reply, err := h.interviewService.SendMessage(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "interviewID"), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, reply)
}
