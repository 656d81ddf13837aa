package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"patas-conectadas/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	kindValidation        = "validation_error"
	kindNotFound          = "not_found"
	kindConflict          = "conflict"
	kindInvalidTransition = "invalid_transition"
	kindInternal          = "internal_error"
)

func respondError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "message": message})
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is logged and reported as a 500 without
// leaking the cause.
func handleServiceError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		respondError(c, http.StatusBadRequest, kindValidation, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		respondError(c, http.StatusBadRequest, kindInvalidTransition, err.Error())
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, kindNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		respondError(c, http.StatusConflict, kindConflict, err.Error())
	default:
		log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		respondError(c, http.StatusInternalServerError, kindInternal, "failed to process request")
	}
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, kindValidation, bindingMessage(err))
}

// bindingMessage turns validator errors into "cpf: must be 11 digits" style
// text; other decode errors pass through.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body: " + err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), ruleMessage(fe)))
	}
	return strings.Join(msgs, "; ")
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "cpf":
		return "must be exactly 11 digits"
	case "min":
		return "must not be empty"
	case "gt":
		return "must be a positive integer"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "failed on " + fe.Tag()
}
