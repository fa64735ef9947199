package handler

import (
	"net/http"
	"time"

	"codeprep/internal/api/middleware"
	"codeprep/internal/app/service"
	"codeprep/internal/common"

	"github.com/go-chi/chi/v5"
)

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type AuthHandler struct {
	authService *service.AuthService
	cookie      CookieConfig
	proxySecret string
}

func NewAuthHandler(authService *service.AuthService, cookie CookieConfig, proxySecret string) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, proxySecret: proxySecret}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.With(middleware.AuthProxy(h.proxySecret)).Post("/oauth", h.oauth)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	h.setCookie(w, resp.Token, int(h.cookie.TTL.Seconds()))
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	h.setCookie(w, resp.Token, int(h.cookie.TTL.Seconds()))
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, "", -1)
	common.RespondWithMessage(w, http.StatusOK, "Logged out")
}

func (h *AuthHandler) oauth(w http.ResponseWriter, r *http.Request) {
	var req service.OAuthRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authService.OAuthLogin(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	h.setCookie(w, resp.Token, int(h.cookie.TTL.Seconds()))
	common.RespondWithJSON(w, http.StatusOK, resp)
}
