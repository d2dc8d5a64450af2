// Package dto defines the request and response shapes of the HTTP API.
package dto

import "github.com/engramkit/engram/pkg/types"

// CreateEntitiesRequest is the body of POST /api/v1/entities.
type CreateEntitiesRequest struct {
	Entities []types.Entity `json:"entities" binding:"required"`
}

// CreateEntitiesResponse reports the entities actually created; entities
// whose name already existed are absent.
type CreateEntitiesResponse struct {
	Created []types.Entity `json:"created"`
}

// DeleteEntitiesRequest is the body of DELETE /api/v1/entities.
type DeleteEntitiesRequest struct {
	EntityNames []string `json:"entity_names" binding:"required"`
}

// AddObservationsRequest is the body of POST /api/v1/entities/observations.
type AddObservationsRequest struct {
	Observations []types.ObservationEntry `json:"observations" binding:"required"`
}

// AddObservationsResponse reports, per entity, the observations actually
// appended.
type AddObservationsResponse struct {
	Results []types.ObservationAddition `json:"results"`
}

// DeleteObservationsRequest is the body of DELETE /api/v1/entities/observations.
type DeleteObservationsRequest struct {
	Deletions []types.ObservationDeletion `json:"deletions" binding:"required"`
}

// CreateRelationsRequest is the body of POST /api/v1/relations.
type CreateRelationsRequest struct {
	Relations []types.Relation `json:"relations" binding:"required"`
}

// CreateRelationsResponse reports the relations actually created; duplicate
// triples are absent.
type CreateRelationsResponse struct {
	Created []types.Relation `json:"created"`
}

// DeleteRelationsRequest is the body of DELETE /api/v1/relations.
type DeleteRelationsRequest struct {
	Relations []types.Relation `json:"relations" binding:"required"`
}

// OpenNodesRequest is the body of POST /api/v1/nodes/open.
type OpenNodesRequest struct {
	Names []string `json:"names" binding:"required"`
}

// Result represents a generic API result.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
