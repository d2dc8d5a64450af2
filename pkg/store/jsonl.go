package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/engramkit/engram/pkg/types"
)

// maxLineBytes bounds a single persisted record. Observations are short
// statements, so a line anywhere near this size is corrupt.
const maxLineBytes = 4 * 1024 * 1024

// JSONLStore persists the graph as line-delimited JSON: one record per line,
// entities first in insertion order, then relations. Saving the same graph
// twice produces byte-identical files.
type JSONLStore struct {
	path   string
	logger *slog.Logger
}

// NewJSONLStore creates a store backed by the file at path. The file is not
// created until the first Save.
func NewJSONLStore(path string, logger *slog.Logger) (*JSONLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("jsonl store: path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONLStore{path: path, logger: logger}, nil
}

// Path returns the memory file location.
func (s *JSONLStore) Path() string {
	return s.path
}

// record is the union of the two persisted shapes. Which variant a line
// holds is decided by its field set: a name marks an entity, endpoint fields
// mark a relation. Lines matching both or neither are rejected.
type record struct {
	Name         string   `json:"name,omitempty"`
	EntityType   string   `json:"entity_type,omitempty"`
	Observations []string `json:"observations,omitempty"`
	FromEntity   string   `json:"from_entity,omitempty"`
	ToEntity     string   `json:"to_entity,omitempty"`
	RelationType string   `json:"relation_type,omitempty"`
}

// DecodeLine maps one JSONL line to its entity or relation variant. Exactly
// one of the returned pointers is non-nil on success.
func DecodeLine(line []byte) (*types.Entity, *types.Relation, error) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", types.ErrFormat, err)
	}

	isEntity := rec.Name != ""
	isRelation := rec.FromEntity != "" || rec.ToEntity != ""
	switch {
	case isEntity && isRelation:
		return nil, nil, fmt.Errorf("%w: record matches both entity and relation shapes", types.ErrFormat)
	case isEntity:
		entity := types.NewEntity(rec.Name, rec.EntityType, rec.Observations)
		if err := entity.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", types.ErrFormat, err)
		}
		return &entity, nil, nil
	case isRelation:
		relation := types.NewRelation(rec.FromEntity, rec.ToEntity, rec.RelationType)
		if err := relation.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", types.ErrFormat, err)
		}
		return nil, &relation, nil
	default:
		return nil, nil, fmt.Errorf("%w: record matches neither entity nor relation shape", types.ErrFormat)
	}
}

// Load reads the whole memory file. A missing file yields an empty graph and
// no error; the file is not created. Any undecodable line aborts the load
// with the offending line number.
func (s *JSONLStore) Load(ctx context.Context) (*types.KnowledgeGraph, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("memory file absent, starting empty", "path", s.path)
			return types.NewKnowledgeGraph(), nil
		}
		return nil, fmt.Errorf("%w: open %s: %v", types.ErrStorage, s.path, err)
	}
	defer file.Close()

	graph := types.NewKnowledgeGraph()
	seenEntities := make(map[string]struct{})
	seenRelations := make(map[types.Relation]struct{})

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		entity, relation, err := DecodeLine([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("load %s: line %d: %w", s.path, lineNo, err)
		}

		switch {
		case entity != nil:
			if _, dup := seenEntities[entity.Name]; dup {
				return nil, fmt.Errorf("load %s: line %d: %w: entity %q", s.path, lineNo, types.ErrDuplicate, entity.Name)
			}
			seenEntities[entity.Name] = struct{}{}
			graph.Entities = append(graph.Entities, *entity)
		case relation != nil:
			if _, dup := seenRelations[*relation]; dup {
				return nil, fmt.Errorf("load %s: line %d: %w: relation %s -[%s]-> %s",
					s.path, lineNo, types.ErrDuplicate, relation.FromEntity, relation.RelationType, relation.ToEntity)
			}
			seenRelations[*relation] = struct{}{}
			graph.Relations = append(graph.Relations, *relation)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", types.ErrStorage, s.path, err)
	}

	return graph, nil
}

// Save atomically replaces the memory file with the given graph. The new
// content is written to a temporary file, synced, then renamed over the
// target, so a crash never leaves a partially written file behind.
func (s *JSONLStore) Save(ctx context.Context, graph *types.KnowledgeGraph) error {
	if graph == nil {
		graph = types.NewKnowledgeGraph()
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for i := range graph.Entities {
		// Clone normalizes nil observations so the record is always an array.
		entity := graph.Entities[i].Clone()
		if err := encoder.Encode(entity); err != nil {
			return fmt.Errorf("%w: encode entity %q: %v", types.ErrFormat, entity.Name, err)
		}
	}
	for _, relation := range graph.Relations {
		if err := encoder.Encode(relation); err != nil {
			return fmt.Errorf("%w: encode relation: %v", types.ErrFormat, err)
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory %s: %v", types.ErrStorage, dir, err)
	}

	tmpPath := s.path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", types.ErrStorage, tmpPath, err)
	}
	if _, err := file.Write(buf.Bytes()); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %v", types.ErrStorage, tmpPath, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: sync %s: %v", types.ErrStorage, tmpPath, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close %s: %v", types.ErrStorage, tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename %s: %v", types.ErrStorage, tmpPath, err)
	}

	s.logger.Debug("graph saved",
		"path", s.path,
		"entities", len(graph.Entities),
		"relations", len(graph.Relations))
	return nil
}

// Close is a no-op; the store holds no open handles between calls.
func (s *JSONLStore) Close(ctx context.Context) error {
	return nil
}
