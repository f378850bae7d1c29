package handlers

import (
	"errors"
	"net/http"

	"github.com/contesthub/server/middleware"
	"github.com/contesthub/server/models"
	"github.com/contesthub/server/services"
)

type ContestHandler struct {
	contestService services.ContestService
}

func NewContestHandler(contestService services.ContestService) *ContestHandler {
	return &ContestHandler{contestService: contestService}
}

// List handles GET /contests. Public; approved contests only, with
// optional search and type filters.
func (h *ContestHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	contests, err := h.contestService.ListApproved(r.Context(), query.Get("search"), query.Get("type"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"contests": contests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Popular handles GET /contests/popular.
func (h *ContestHandler) Popular(w http.ResponseWriter, r *http.Request) {
	contests, err := h.contestService.ListPopular(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"contests": contests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AdminListAll handles GET /contests/admin/all (admin only).
func (h *ContestHandler) AdminListAll(w http.ResponseWriter, r *http.Request) {
	contests, err := h.contestService.ListAll(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"contests": contests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyContests handles GET /contests/my-contests (creator only).
func (h *ContestHandler) MyContests(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	contests, err := h.contestService.ListByCreator(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"contests": contests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByID handles GET /contests/{contestID}.
func (h *ContestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contest, err := h.contestService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Create handles POST /contests (creator only).
func (h *ContestHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.CreateContestInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contest, err := h.contestService.Create(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetStatus handles PATCH /contests/status/{contestID} (admin only).
func (h *ContestHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		Status models.ContestStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contest, err := h.contestService.SetStatus(r.Context(), actor, id, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update handles PATCH /contests/{contestID}.
func (h *ContestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.CreateContestInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contest, err := h.contestService.Update(r.Context(), actor, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeclareWinner handles PATCH /contests/winner/{contestID}.
func (h *ContestHandler) DeclareWinner(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		WinnerEmail string `json:"winner_email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contest, err := h.contestService.DeclareWinner(r.Context(), actor, id, input.WinnerEmail)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete handles DELETE /contests/{contestID}.
func (h *ContestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.contestService.Delete(r.Context(), actor, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "contest deleted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadImage handles POST /contests/{contestID}/image. Expects a
// multipart form with an "image" field.
func (h *ContestHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content type required"))
		return
	}

	contest, err := h.contestService.UploadImage(r.Context(), actor, id, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"contest": contest}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
