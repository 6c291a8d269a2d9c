package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusgo/tutorias-api/internal/middleware"
	"github.com/campusgo/tutorias-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext resolves the authenticated caller. Routes behind the JWT
// middleware always carry claims; the zero Actor fails every capability
// check downstream.
func actorFromContext(c *gin.Context) models.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Actor{}
	}
	return models.Actor{UserID: claims.UserID, Role: claims.Role}
}
