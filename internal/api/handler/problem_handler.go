package handler

import (
	"net/http"

	"codeprep/internal/api/middleware"
	"codeprep/internal/app/access"
	"codeprep/internal/app/service"
	"codeprep/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
}

func NewProblemHandler(ps *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

// RegisterRoutes serves /problems. {problemID} accepts the uuid or the slug.
func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.OptionalAuth).Get("/", h.listProblems)
	r.With(middleware.OptionalAuth).Get("/{problemID}", h.getProblem)

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.Authenticator)
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createProblem)
		adminRouter.Put("/{problemID}", h.updateProblem)
		adminRouter.Delete("/{problemID}", h.deleteProblem)
	})
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	problem, err := h.problemService.CreateProblem(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.problemService.ListProblems(r.Context(), service.ListProblemsQuery{
		Difficulty: q.Get("difficulty"),
		Tag:        q.Get("tag"),
		Page:       queryInt(r, "page"),
		PageSize:   queryInt(r, "pageSize"),
		Fields:     q["fields"],
	})
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problemService.GetProblem(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	problem, err := h.problemService.UpdateProblem(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "problemID"), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	if err := h.problemService.DeleteProblem(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "problemID")); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Problem deleted")
}
