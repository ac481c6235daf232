package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curesense/curesense/internal/auth"
	"github.com/curesense/curesense/internal/inference"
	"github.com/curesense/curesense/internal/model"
	"github.com/curesense/curesense/internal/pipeline"
	"github.com/curesense/curesense/internal/store"
)

type predictRequest struct {
	Symptoms string `json:"symptoms"`
}

type predictResponse struct {
	Symptoms          string                 `json:"symptoms"`
	PredictedDiseases []inference.Prediction `json:"predicted_diseases"`
	Medications       []string               `json:"medications"`
	DoctorTypes       []string               `json:"doctor_types"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type historyResponse struct {
	User    string                `json:"user"`
	History []store.HistoryRecord `json:"history"`
}

func (s *server) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "CureSense API is live",
		"status":    "running",
		"endpoints": []string{"/health", "/predict", "/history", "/auth"},
	})
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) ready(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled", "model": s.modelVersion})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"db":     fmt.Sprintf("unhealthy: %v", err),
			"model":  s.modelVersion,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok", "model": s.modelVersion})
}

func (s *server) predict(c *gin.Context) {
	var req predictRequest
	if !bindJSON(c, &req) {
		return
	}

	out, err := s.pipeline.Infer(req.Symptoms)
	if err != nil {
		s.fail(c, err)
		return
	}

	if user := s.optionalUser(c); user != nil && s.history != nil {
		rec := &store.HistoryRecord{
			UserID:            user.ID,
			Symptoms:          req.Symptoms,
			PredictedDiseases: out.Predictions,
			Medications:       out.Medications,
			Specialists:       out.Specialists,
		}
		if err := s.history.AppendHistory(c.Request.Context(), rec); err != nil {
			s.log.Warn().Err(err).
				Str("request_id", c.GetString(requestIDKey)).
				Str("user_id", user.ID.String()).
				Msg("save history")
		}
	}

	c.JSON(http.StatusOK, predictResponse{
		Symptoms:          req.Symptoms,
		PredictedDiseases: out.Predictions,
		Medications:       out.Medications,
		DoctorTypes:       out.Specialists,
	})
}

func (s *server) register(c *gin.Context) {
	var req credentials
	if !bindJSON(c, &req) {
		return
	}

	_, err := s.auth.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing username or password"})
	case errors.Is(err, auth.ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password too long"})
	case errors.Is(err, store.ErrUserExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
	case err != nil:
		s.fail(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
	}
}

func (s *server) login(c *gin.Context) {
	var req credentials
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrMissingCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case err != nil:
		s.fail(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"token": token, "username": user.Username})
	}
}

func (s *server) listHistory(c *gin.Context) {
	token := auth.TokenFromHeader(c.GetHeader("Authorization"))
	user, err := s.auth.Authenticate(c.Request.Context(), token)
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	case err != nil:
		s.fail(c, err)
		return
	}

	recs, err := s.history.ListHistory(c.Request.Context(), user.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, historyResponse{User: user.Username, History: recs})
}

// optionalUser resolves the Authorization header when present. Any failure
// means an anonymous request.
func (s *server) optionalUser(c *gin.Context) *store.User {
	token := auth.TokenFromHeader(c.GetHeader("Authorization"))
	if token == "" || s.auth == nil {
		return nil
	}
	user, err := s.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return user
}

func (s *server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, pipeline.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrModelUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
	return false
}
