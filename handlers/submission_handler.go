package handlers

import (
	"net/http"

	"github.com/contesthub/server/middleware"
	"github.com/contesthub/server/services"
)

type SubmissionHandler struct {
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// Submit handles POST /submissions.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	if actor == nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.SubmitInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	submission, err := h.submissionService.Submit(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"submission": submission}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListForContest handles GET /submissions/{contestID}; visible to
// admins and the contest's creator.
func (h *SubmissionHandler) ListForContest(w http.ResponseWriter, r *http.Request) {
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

	submissions, err := h.submissionService.ListForContest(r.Context(), actor, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"submissions": submissions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
