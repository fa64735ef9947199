package handler

import (
	"net/http"

	"codeprep/internal/app/access"
	"codeprep/internal/app/service"
	"codeprep/internal/common"

	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(ps *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

// RegisterRoutes expects an authenticated router.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/subscription", h.status)
	r.Post("/subscription", h.createOrder)
	r.Post("/verify", h.verify)
	r.Post("/failure", h.reportFailure)
}

func (h *PaymentHandler) status(w http.ResponseWriter, r *http.Request) {
	status, err := h.paymentService.Status(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, status)
}

func (h *PaymentHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.paymentService.CreateOrder(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *PaymentHandler) verify(w http.ResponseWriter, r *http.Request) {
	var req service.VerifyPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := h.paymentService.Verify(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, status)
}

func (h *PaymentHandler) reportFailure(w http.ResponseWriter, r *http.Request) {
	var req service.PaymentFailureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.paymentService.ReportFailure(r.Context(), access.FromContext(r.Context()), req); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Payment marked as failed")
}
