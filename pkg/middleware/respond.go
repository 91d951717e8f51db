package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carolinavmo/PMR-atlas/internal/access"
	"github.com/carolinavmo/PMR-atlas/internal/apperr"
)

// RespondError writes err with the status apperr maps it to. Details of
// unexpected errors stay in the request log.
func RespondError(c *gin.Context, err error) {
	status := apperr.StatusCode(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// RequireCaller returns the resolved caller or answers 401.
func RequireCaller(c *gin.Context) (caller access.Caller, ok bool) {
	caller, ok = CallerFrom(c)
	if !ok || caller.ID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return caller, false
	}
	return caller, true
}
