package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

var statusByKind = map[domain.ErrorKind]int{
	domain.KindUnauthorized:    http.StatusUnauthorized,
	domain.KindForbidden:       http.StatusForbidden,
	domain.KindInvalidInput:    http.StatusBadRequest,
	domain.KindNotFound:        http.StatusNotFound,
	domain.KindConflict:        http.StatusConflict,
	domain.KindUpstreamFailure: http.StatusBadGateway,
}

// respondError writes {"error": message} with the status of err's kind.
// Unclassified errors are attached to the context for the request logger
// and reported as a bare 500.
func respondError(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		if status, ok := statusByKind[de.Kind]; ok {
			if de.Kind == domain.KindUpstreamFailure {
				_ = c.Error(err)
			}
			c.AbortWithStatusJSON(status, gin.H{"error": de.Message})
			return
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
