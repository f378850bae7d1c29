package handlers

import (
	"errors"
	"net/http"

	"github.com/contesthub/server/middleware"
	"github.com/contesthub/server/services"
	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateIntent handles POST /payments/create-payment-intent.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Price float64 `json:"price"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	clientSecret, err := h.paymentService.CreatePaymentIntent(r.Context(), input.Price)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"clientSecret": clientSecret}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Record handles POST /payments.
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.RecordPaymentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	payment, err := h.paymentService.Record(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"payment": payment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListForUser handles GET /payments/{email}; self-only.
func (h *PaymentHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		badRequestResponse(w, r, errors.New("missing email in URL path"))
		return
	}

	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	payments, err := h.paymentService.ListForUser(r.Context(), actor, email)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"payments": payments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
