package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/service"
)

const (
	titleValidation       = "Validation error"
	titleInvalidOperation = "Invalid operation"
	titleInvalidRequest   = "Invalid request"
	titleInternal         = "Internal server error"
	titleNotFound         = "Item not found"

	internalErrorDetails = "An unexpected error occurred. Please try again later."
)

// respondServiceError maps service errors onto HTTP responses. Unknown errors are
// logged and answered with a generic 500.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		if len(verr.Fields) > 0 {
			respondError(w, http.StatusBadRequest, titleValidation, verr.Fields)
			return
		}
		respondError(w, http.StatusBadRequest, titleInvalidRequest, verr.Problems)
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, titleNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidOperation):
		respondError(w, http.StatusBadRequest, titleInvalidOperation, err.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, titleInvalidRequest, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		respondJSON(w, http.StatusUnauthorized, messageResponse{Message: err.Error()})
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, titleInternal, internalErrorDetails)
	}
}
