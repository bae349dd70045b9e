package api

import (
	"errors"
	"log"
	"net/http"

	"indicator-dashboard/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	OTP      string `json:"otp"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, sess, err := h.Auth.Login(r.Context(), req.Email, req.Password, req.OTP)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	case errors.Is(err, auth.ErrOTPRequired):
		respond(w, http.StatusUnauthorized, map[string]interface{}{
			"success":     false,
			"message":     "OTP code required",
			"otpRequired": true,
		})
		return
	case err != nil:
		log.Printf("[api] login: %v", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user": map[string]interface{}{
			"email":  sess.Email,
			"access": sess.Access,
		},
		"token": token,
	})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)
	if token == "" || !h.Auth.Logout(token) {
		respondError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Logged out"})
}
