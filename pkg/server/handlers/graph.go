// Package handlers implements the HTTP handlers of the graph API.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/engramkit/engram"
	"github.com/engramkit/engram/pkg/server/dto"
	"github.com/engramkit/engram/pkg/types"
)

// GraphHandler handles the knowledge graph CRUD and query endpoints.
type GraphHandler struct {
	client engram.GraphClient
	logger *slog.Logger
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(client engram.GraphClient, logger *slog.Logger) *GraphHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphHandler{
		client: client,
		logger: logger,
	}
}

// CreateEntities handles POST /api/v1/entities.
func (h *GraphHandler) CreateEntities(c *gin.Context) {
	var req dto.CreateEntitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	created, err := h.client.CreateEntities(c.Request.Context(), req.Entities)
	if err != nil {
		h.respondError(c, "create_entities", err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateEntitiesResponse{Created: created})
}

// DeleteEntities handles DELETE /api/v1/entities.
func (h *GraphHandler) DeleteEntities(c *gin.Context) {
	var req dto.DeleteEntitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	if err := h.client.DeleteEntities(c.Request.Context(), req.EntityNames); err != nil {
		h.respondError(c, "delete_entities", err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Message: "entities deleted"})
}

// AddObservations handles POST /api/v1/entities/observations.
func (h *GraphHandler) AddObservations(c *gin.Context) {
	var req dto.AddObservationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	results, err := h.client.AddObservations(c.Request.Context(), req.Observations)
	if err != nil {
		h.respondError(c, "add_observations", err)
		return
	}
	c.JSON(http.StatusOK, dto.AddObservationsResponse{Results: results})
}

// DeleteObservations handles DELETE /api/v1/entities/observations.
func (h *GraphHandler) DeleteObservations(c *gin.Context) {
	var req dto.DeleteObservationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	if err := h.client.DeleteObservations(c.Request.Context(), req.Deletions); err != nil {
		h.respondError(c, "delete_observations", err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Message: "observations deleted"})
}

// CreateRelations handles POST /api/v1/relations.
func (h *GraphHandler) CreateRelations(c *gin.Context) {
	var req dto.CreateRelationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	created, err := h.client.CreateRelations(c.Request.Context(), req.Relations)
	if err != nil {
		h.respondError(c, "create_relations", err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateRelationsResponse{Created: created})
}

// DeleteRelations handles DELETE /api/v1/relations.
func (h *GraphHandler) DeleteRelations(c *gin.Context) {
	var req dto.DeleteRelationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	if err := h.client.DeleteRelations(c.Request.Context(), req.Relations); err != nil {
		h.respondError(c, "delete_relations", err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Message: "relations deleted"})
}

// ReadGraph handles GET /api/v1/graph.
func (h *GraphHandler) ReadGraph(c *gin.Context) {
	graph, err := h.client.ReadGraph(c.Request.Context())
	if err != nil {
		h.respondError(c, "read_graph", err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// ClearGraph handles DELETE /api/v1/graph.
func (h *GraphHandler) ClearGraph(c *gin.Context) {
	if err := h.client.Clear(c.Request.Context()); err != nil {
		h.respondError(c, "clear_graph", err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Message: "graph cleared"})
}

// GraphStats handles GET /api/v1/graph/stats.
func (h *GraphHandler) GraphStats(c *gin.Context) {
	stats, err := h.client.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, "graph_stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SearchNodes handles GET /api/v1/search?q=. A missing or blank query is
// not an error; it returns an empty graph.
func (h *GraphHandler) SearchNodes(c *gin.Context) {
	graph, err := h.client.SearchNodes(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, "search_nodes", err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// OpenNodes handles POST /api/v1/nodes/open.
func (h *GraphHandler) OpenNodes(c *gin.Context) {
	var req dto.OpenNodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	graph, err := h.client.OpenNodes(c.Request.Context(), req.Names)
	if err != nil {
		h.respondError(c, "open_nodes", err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

func (h *GraphHandler) respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "invalid request body",
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}

// respondError maps operation errors onto HTTP statuses: missing entities
// are 404, input validation failures 400, everything else 500.
func (h *GraphHandler) respondError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	label := "operation failed"
	switch {
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
		label = "entity not found"
	case types.IsValidation(err):
		status = http.StatusBadRequest
		label = "invalid input"
	}

	h.logger.Error("graph operation failed",
		"op", op,
		"status", status,
		"error", err)
	c.JSON(status, dto.ErrorResponse{
		Error:   label,
		Message: err.Error(),
		Code:    status,
	})
}
