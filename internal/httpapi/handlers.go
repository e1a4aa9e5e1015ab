package httpapi

import (
	"net/http"
	"time"

	"github.com/farmlink/authcore"
	"github.com/farmlink/authcore/internal/flows"
	"github.com/farmlink/authcore/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = writeOK(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	sess, err := s.svc.Register(r.Context(), authcore.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        authcore.Role(req.Role),
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := writeCreated(w, sess); err != nil {
		s.logger.Error("failed to write register response", zap.Error(err))
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	sess, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := writeOK(w, sess); err != nil {
		s.logger.Error("failed to write login response", zap.Error(err))
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := flows.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		s.handleError(w, r, authcore.Denied(authcore.ReasonNoCredential, nil))
		return
	}

	sess, err := s.svc.Refresh(r.Context(), token)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := writeOK(w, sess); err != nil {
		s.logger.Error("failed to write refresh response", zap.Error(err))
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := flows.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		s.handleError(w, r, authcore.Denied(authcore.ReasonNoCredential, nil))
		return
	}

	if err := s.svc.Logout(r.Context(), token); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	res, _ := middleware.AuthResultFromContext(r.Context())

	p, err := s.svc.Principal(r.Context(), res.Principal.ID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	_ = writeOK(w, p)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	res, _ := middleware.AuthResultFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.svc.ChangePassword(r.Context(), res.Principal.ID, req.OldPassword, req.NewPassword); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPrincipal(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Principal(r.Context(), chi.URLParam(r, "principalID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	_ = writeOK(w, p)
}

func (s *Server) handleAdminPing(w http.ResponseWriter, r *http.Request) {
	res, _ := middleware.AuthResultFromContext(r.Context())
	_ = writeOK(w, map[string]string{
		"status":      "ok",
		"principalId": res.Principal.ID,
	})
}
