package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/model"
)

// packageRequest is the POST/PUT payload. A missing status means InWarehouse.
type packageRequest struct {
	Name           string        `json:"name"`
	Status         *model.Status `json:"status"`
	DateOfCreation time.Time     `json:"dateOfCreation"`
	DateOfDelivery *time.Time    `json:"dateOfDelivery"`
}

func (req packageRequest) toModel() model.Package {
	status := model.StatusInWarehouse
	if req.Status != nil {
		status = *req.Status
	}
	return model.Package{
		Name:           req.Name,
		Status:         status,
		DateOfCreation: req.DateOfCreation,
		DateOfDelivery: req.DateOfDelivery,
	}
}

func decodePackageRequest(r *http.Request) (model.Package, error) {
	var req packageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return model.Package{}, err
	}
	return req.toModel(), nil
}

// packageID reads the {id} path variable. ok is false when it is not a UUID.
func packageID(r *http.Request) (uuid.UUID, string, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	return id, raw, err == nil
}

func respondUnknownID(w http.ResponseWriter, raw string) {
	respondError(w, http.StatusNotFound, titleNotFound, fmt.Sprintf("There is no package with the id of %s.", raw))
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := s.packages.GetAll(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, packages)
}

func (s *Server) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	id, raw, ok := packageID(r)
	if !ok {
		respondUnknownID(w, raw)
		return
	}

	p, err := s.packages.GetByID(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleAddPackage(w http.ResponseWriter, r *http.Request) {
	in, err := decodePackageRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, titleInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.packages.Add(r.Context(), in)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/packages/"+created.ID.String())
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePackage(w http.ResponseWriter, r *http.Request) {
	id, raw, ok := packageID(r)
	if !ok {
		respondUnknownID(w, raw)
		return
	}

	in, err := decodePackageRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, titleInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := s.packages.Update(r.Context(), id, in)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePackage(w http.ResponseWriter, r *http.Request) {
	id, raw, ok := packageID(r)
	if !ok {
		respondUnknownID(w, raw)
		return
	}

	removed, err := s.packages.Delete(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.logger.Info("package removed by user",
		zap.Stringer("package_id", id),
		zap.String("username", usernameFromContext(r.Context())),
	)
	respondJSON(w, http.StatusOK, removed)
}
