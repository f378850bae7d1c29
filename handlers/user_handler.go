package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/contesthub/server/middleware"
	"github.com/contesthub/server/models"
	"github.com/contesthub/server/services"
	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SignUp handles POST /users. Creating an already-known email is not
// an error: the existing user is returned so repeated logins through
// the identity provider stay idempotent.
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input services.SignUpInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, created, err := h.userService.SignUp(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if !created {
		if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "user already exists", "user": user}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List handles GET /users (admin only).
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"users": users}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AdminProbe handles GET /users/admin/{email}; self-only.
func (h *UserHandler) AdminProbe(w http.ResponseWriter, r *http.Request) {
	h.roleProbe(w, r, models.RoleAdmin, "admin")
}

// CreatorProbe handles GET /users/creator/{email}; self-only.
func (h *UserHandler) CreatorProbe(w http.ResponseWriter, r *http.Request) {
	h.roleProbe(w, r, models.RoleCreator, "creator")
}

func (h *UserHandler) roleProbe(w http.ResponseWriter, r *http.Request, role models.UserRole, field string) {
	email := chi.URLParam(r, "email")
	if email == "" {
		badRequestResponse(w, r, errors.New("missing email in URL path"))
		return
	}

	claimEmail, err := middleware.EmailFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	if !strings.EqualFold(email, claimEmail) {
		forbiddenResponse(w, r, "forbidden access")
		return
	}

	has, err := h.userService.HasRole(r.Context(), email, role)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{field: has}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateRole handles PATCH /users/role/{userID} (admin only).
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Role models.UserRole `json:"role"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.UpdateRole(r.Context(), id, input.Role)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateProfile handles PATCH /users/{userID}.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.UpdateProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), actor, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
