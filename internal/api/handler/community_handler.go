package handler

import (
	"net/http"

	"codeprep/internal/api/middleware"
	"codeprep/internal/app/access"
	"codeprep/internal/app/service"
	"codeprep/internal/common"

	"github.com/go-chi/chi/v5"
)

type CommunityHandler struct {
	communityService *service.CommunityService
}

func NewCommunityHandler(cs *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{communityService: cs}
}

// RegisterRoutes serves /community. Reads are public; the caller's own vote
// and ownership flags are filled in when a token is present.
func (h *CommunityHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(public chi.Router) {
		public.Use(middleware.OptionalAuth)
		public.Get("/posts", h.listPosts)
		public.Get("/posts/{postID}", h.getPost)
		public.Get("/posts/{postID}/comments", h.listComments)
	})

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Post("/posts", h.createPost)
		authed.Delete("/posts/{postID}", h.deletePost)
		authed.Post("/posts/{postID}/comments", h.createComment)
		authed.Post("/posts/{postID}/vote", h.vote)
		authed.Delete("/comments/{commentID}", h.deleteComment)
	})
}

func (h *CommunityHandler) listPosts(w http.ResponseWriter, r *http.Request) {
	page, err := h.communityService.ListPosts(r.Context(), access.FromContext(r.Context()), service.ListPostsQuery{
		Topic:    r.URL.Query().Get("topic"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "pageSize"),
	})
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *CommunityHandler) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.communityService.GetPost(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "postID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, post)
}

func (h *CommunityHandler) createPost(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	post, err := h.communityService.CreatePost(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, post)
}

func (h *CommunityHandler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.communityService.DeletePost(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "postID")); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Post deleted")
}

func (h *CommunityHandler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.communityService.ListComments(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, comments)
}

func (h *CommunityHandler) createComment(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := h.communityService.CreateComment(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "postID"), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, comment)
}

func (h *CommunityHandler) vote(w http.ResponseWriter, r *http.Request) {
	var req service.VoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tally, err := h.communityService.Vote(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "postID"), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tally)
}

func (h *CommunityHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.communityService.DeleteComment(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "commentID")); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Comment deleted")
}
