package controllers

import (
	"net/http"

	"growdash-agent/backend/app/dto"
	jwtutil "growdash-agent/backend/app/jwt"
	"growdash-agent/backend/app/services"
)

type AuthController struct {
	Users  *services.UserService
	Signer *jwtutil.Signer
}

func NewAuthController(users *services.UserService, signer *jwtutil.Signer) *AuthController {
	return &AuthController{Users: users, Signer: signer}
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeFailure(w, http.StatusBadRequest, "missing credentials")
		return
	}
	u, err := c.Users.ValidateCredentials(req.Username, req.Password)
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, exp, err := c.Signer.Sign(u.ID, u.Username, u.Role)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "token error")
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp})
}
