package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/exam-engine-api/internal/middleware"
	"github.com/schoolsuite/exam-engine-api/internal/models"
	appErrors "github.com/schoolsuite/exam-engine-api/pkg/errors"
)

// currentClaims extracts the authenticated user's claims. Every handler
// threads the claims' school and session ids into its service calls; there
// is no ambient tenant anywhere below the handler layer.
func currentClaims(c *gin.Context) (*models.JWTClaims, error) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil, appErrors.ErrUnauthorized
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}
