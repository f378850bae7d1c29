package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/contesthub/server/models"
	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = time.Hour

type AuthHandler struct {
	jwtSecret []byte
}

func NewAuthHandler(jwtSecret string) *AuthHandler {
	return &AuthHandler{jwtSecret: []byte(jwtSecret)}
}

// IssueToken exchanges a federated identity for a short-lived bearer
// token. The role claim is informational only; authorization always
// re-reads the user row.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string          `json:"email"`
		Role  models.UserRole `json:"role"`
	}

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.Email) == "" {
		badRequestResponse(w, r, errors.New("email is required"))
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"email": strings.ToLower(strings.TrimSpace(input.Email)),
		"role":  input.Role,
		"exp":   now.Add(tokenTTL).Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to sign token: %w", err))
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": tokenString}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
