// internal/interfaces/http/handlers/respond.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
)

// respondError maps a service error to its HTTP status and writes the
// standard error envelope. Internal details never reach the client.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{
		"error": apperr.Message(err),
	})
}
