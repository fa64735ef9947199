package handler

import (
	"net/http"

	"codeprep/internal/api/middleware"
	"codeprep/internal/app/access"
	"codeprep/internal/app/service"
	"codeprep/internal/common"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(ss *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

// RegisterProblemRoutes adds the per-problem routes to the /problems router.
func (h *SubmissionHandler) RegisterProblemRoutes(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Get("/{problemID}/submissions", h.listSubmissions)
		authed.Post("/{problemID}/submissions", h.createSubmission)
		authed.Post("/{problemID}/run", h.runCode)
	})
}

// RegisterRoutes serves /submissions.
func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/{submissionID}", h.getSubmission)
}

func (h *SubmissionHandler) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	submission, err := h.submissionService.CreateSubmission(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "problemID"), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, submission) // evaluated asynchronously
}

func (h *SubmissionHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissionService.ListSubmissions(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.submissionService.GetSubmission(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "submissionID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) runCode(w http.ResponseWriter, r *http.Request) {
	var req service.RunCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.submissionService.RunCode(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "problemID"), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}
