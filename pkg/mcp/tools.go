package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/engramkit/engram/pkg/types"
)

// Tool argument schemas. These are the original memory server's snake_case
// shapes; hosts validate calls against them before dispatch.
const (
	createEntitiesSchema = `{
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "description": "Entities to create",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string", "description": "Unique name of the entity"},
          "entity_type": {"type": "string", "description": "Type of the entity"},
          "observations": {
            "type": "array",
            "items": {"type": "string"},
            "description": "Observation contents associated with the entity"
          }
        },
        "required": ["name", "entity_type"]
      }
    }
  },
  "required": ["entities"]
}`

	createRelationsSchema = `{
  "type": "object",
  "properties": {
    "relations": {
      "type": "array",
      "description": "Relations to create",
      "items": {
        "type": "object",
        "properties": {
          "from_entity": {"type": "string", "description": "Name of the source entity"},
          "to_entity": {"type": "string", "description": "Name of the target entity"},
          "relation_type": {"type": "string", "description": "Type of the relation, in active voice"}
        },
        "required": ["from_entity", "to_entity", "relation_type"]
      }
    }
  },
  "required": ["relations"]
}`

	addObservationsSchema = `{
  "type": "object",
  "properties": {
    "observations": {
      "type": "array",
      "description": "Observations to add, grouped by entity",
      "items": {
        "type": "object",
        "properties": {
          "entity_name": {"type": "string", "description": "Name of the entity to extend"},
          "contents": {
            "type": "array",
            "items": {"type": "string"},
            "description": "Observation contents to append"
          }
        },
        "required": ["entity_name", "contents"]
      }
    }
  },
  "required": ["observations"]
}`

	deleteEntitiesSchema = `{
  "type": "object",
  "properties": {
    "entity_names": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Names of the entities to delete"
    }
  },
  "required": ["entity_names"]
}`

	deleteObservationsSchema = `{
  "type": "object",
  "properties": {
    "deletions": {
      "type": "array",
      "description": "Observations to remove, one entry per observation",
      "items": {
        "type": "object",
        "properties": {
          "entity_name": {"type": "string", "description": "Name of the entity to trim"},
          "observation": {"type": "string", "description": "Exact observation content to remove"}
        },
        "required": ["entity_name", "observation"]
      }
    }
  },
  "required": ["deletions"]
}`

	deleteRelationsSchema = `{
  "type": "object",
  "properties": {
    "relations": {
      "type": "array",
      "description": "Relations to delete, matched by the full triple",
      "items": {
        "type": "object",
        "properties": {
          "from_entity": {"type": "string", "description": "Name of the source entity"},
          "to_entity": {"type": "string", "description": "Name of the target entity"},
          "relation_type": {"type": "string", "description": "Type of the relation"}
        },
        "required": ["from_entity", "to_entity", "relation_type"]
      }
    }
  },
  "required": ["relations"]
}`

	readGraphSchema = `{
  "type": "object",
  "properties": {}
}`

	searchNodesSchema = `{
  "type": "object",
  "properties": {
    "query": {
      "type": "string",
      "description": "Search string matched case-insensitively against entity names, types, and observation contents"
    }
  },
  "required": ["query"]
}`

	openNodesSchema = `{
  "type": "object",
  "properties": {
    "names": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Names of the entities to retrieve"
    }
  },
  "required": ["names"]
}`
)

type createEntitiesArgs struct {
	Entities []types.Entity `json:"entities"`
}

type createRelationsArgs struct {
	Relations []types.Relation `json:"relations"`
}

type addObservationsArgs struct {
	Observations []types.ObservationEntry `json:"observations"`
}

type deleteEntitiesArgs struct {
	EntityNames []string `json:"entity_names"`
}

type deleteObservationsArgs struct {
	Deletions []types.ObservationDeletion `json:"deletions"`
}

type deleteRelationsArgs struct {
	Relations []types.Relation `json:"relations"`
}

type searchNodesArgs struct {
	Query string `json:"query"`
}

type openNodesArgs struct {
	Names []string `json:"names"`
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewToolWithRawSchema("create_entities",
		"Create new entities in the knowledge graph. Entities whose name already exists are skipped; the result lists the entities actually created.",
		json.RawMessage(createEntitiesSchema)), s.handleCreateEntities)

	s.mcp.AddTool(mcp.NewToolWithRawSchema("create_relations",
		"Create new relations between existing entities. Duplicate relations are skipped; the result lists the relations actually created.",
		json.RawMessage(createRelationsSchema)), s.handleCreateRelations)

	s.mcp.AddTool(mcp.NewToolWithRawSchema("add_observations",
		"Add observations to existing entities. Contents an entity already holds are skipped; the result lists the observations actually added.",
		json.RawMessage(addObservationsSchema)), s.handleAddObservations)

	s.mcp.AddTool(mcp.NewToolWithRawSchema("delete_entities",
		"Delete entities and every relation that touches them. Unknown names are ignored.",
		json.RawMessage(deleteEntitiesSchema)), s.handleDeleteEntities)

	s.mcp.AddTool(mcp.NewToolWithRawSchema("delete_observations",
		"Delete specific observations from entities. Unknown entities and absent observations are ignored.",
		json.RawMessage(deleteObservationsSchema)), s.handleDeleteObservations)

	s.mcp.AddTool(mcp.NewToolWithRawSchema("delete_relations",
		"Delete relations from the graph. Only exact from/to/type matches are removed.",
		json.RawMessage(deleteRelationsSchema)), s.handleDeleteRelations)

	s.mcp.AddTool(mcp.NewToolWithRawSchema("read_graph",
		"Read the entire knowledge graph.",
		json.RawMessage(readGraphSchema)), s.handleReadGraph)

	s.mcp.AddTool(mcp.NewToolWithRawSchema("search_nodes",
		"Search for nodes by name, type, or observation content, with the relations among the matches.",
		json.RawMessage(searchNodesSchema)), s.handleSearchNodes)

	s.mcp.AddTool(mcp.NewToolWithRawSchema("open_nodes",
		"Open specific nodes by name, with the relations among them. Unknown names are ignored.",
		json.RawMessage(openNodesSchema)), s.handleOpenNodes)
}

func (s *Server) handleCreateEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args createEntitiesArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	created, err := s.client.CreateEntities(ctx, args.Entities)
	if err != nil {
		return s.toolError("create_entities", err), nil
	}
	return jsonResult(map[string]any{"created": created})
}

func (s *Server) handleCreateRelations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args createRelationsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	created, err := s.client.CreateRelations(ctx, args.Relations)
	if err != nil {
		return s.toolError("create_relations", err), nil
	}
	return jsonResult(map[string]any{"created": created})
}

func (s *Server) handleAddObservations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args addObservationsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := s.client.AddObservations(ctx, args.Observations)
	if err != nil {
		return s.toolError("add_observations", err), nil
	}
	return jsonResult(map[string]any{"results": results})
}

func (s *Server) handleDeleteEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args deleteEntitiesArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.client.DeleteEntities(ctx, args.EntityNames); err != nil {
		return s.toolError("delete_entities", err), nil
	}
	return jsonResult(map[string]any{"success": true, "message": "entities deleted"})
}

func (s *Server) handleDeleteObservations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args deleteObservationsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.client.DeleteObservations(ctx, args.Deletions); err != nil {
		return s.toolError("delete_observations", err), nil
	}
	return jsonResult(map[string]any{"success": true, "message": "observations deleted"})
}

func (s *Server) handleDeleteRelations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args deleteRelationsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.client.DeleteRelations(ctx, args.Relations); err != nil {
		return s.toolError("delete_relations", err), nil
	}
	return jsonResult(map[string]any{"success": true, "message": "relations deleted"})
}

func (s *Server) handleReadGraph(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graph, err := s.client.ReadGraph(ctx)
	if err != nil {
		return s.toolError("read_graph", err), nil
	}
	return jsonResult(graph)
}

func (s *Server) handleSearchNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args searchNodesArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	graph, err := s.client.SearchNodes(ctx, args.Query)
	if err != nil {
		return s.toolError("search_nodes", err), nil
	}
	return jsonResult(graph)
}

func (s *Server) handleOpenNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args openNodesArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	graph, err := s.client.OpenNodes(ctx, args.Names)
	if err != nil {
		return s.toolError("open_nodes", err), nil
	}
	return jsonResult(graph)
}

// toolError reports an operation failure as a tool error result. Protocol
// errors are reserved for transport problems; graph failures travel in
// band so the model can read them.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Error("tool call failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
