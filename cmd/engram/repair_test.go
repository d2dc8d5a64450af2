package engram

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeMemoryFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestRepairFileCleanInput(t *testing.T) {
	path := writeMemoryFile(t, `{"name":"alice","entity_type":"person","observations":["likes go"]}
{"name":"bob","entity_type":"person","observations":[]}
{"from_entity":"alice","to_entity":"bob","relation_type":"knows"}
`)

	graph, stats, err := repairFile(path, newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.kept)
	assert.Equal(t, 0, stats.repaired)
	assert.Equal(t, 0, stats.dropped)
	assert.Len(t, graph.Entities, 2)
	assert.Len(t, graph.Relations, 1)
}

func TestRepairFileRepairsDamagedLines(t *testing.T) {
	// Trailing comma and single quotes are both recoverable.
	path := writeMemoryFile(t, `{"name":"alice","entity_type":"person","observations":["likes go"],}
{'name': 'bob', 'entity_type': 'person'}
{"from_entity":"alice","to_entity":"bob","relation_type":"knows"}
`)

	graph, stats, err := repairFile(path, newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.kept)
	assert.Equal(t, 2, stats.repaired)
	assert.Equal(t, 0, stats.dropped)
	assert.Len(t, graph.Entities, 2)
	assert.Len(t, graph.Relations, 1)
}

func TestRepairFileDropsIrreparableLines(t *testing.T) {
	// The second line repairs into valid JSON of the wrong shape and the
	// third is missing its entity type; both must go.
	path := writeMemoryFile(t, `{"name":"alice","entity_type":"person","observations":[]}
{"foo":"bar"}
{"name":"ghost"}
`)

	graph, stats, err := repairFile(path, newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.kept)
	assert.Equal(t, 0, stats.repaired)
	assert.Equal(t, 2, stats.dropped)
	require.Len(t, graph.Entities, 1)
	assert.Equal(t, "alice", graph.Entities[0].Name)
}

func TestRepairFileDropsDuplicates(t *testing.T) {
	path := writeMemoryFile(t, `{"name":"alice","entity_type":"person","observations":["first"]}
{"name":"alice","entity_type":"robot","observations":["second"]}
{"from_entity":"alice","to_entity":"alice","relation_type":"knows"}
{"from_entity":"alice","to_entity":"alice","relation_type":"knows"}
`)

	graph, stats, err := repairFile(path, newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.kept)
	assert.Equal(t, 2, stats.dropped)
	require.Len(t, graph.Entities, 1)
	assert.Equal(t, "person", graph.Entities[0].EntityType)
	assert.Len(t, graph.Relations, 1)
}

func TestRepairFileSkipsBlankLines(t *testing.T) {
	path := writeMemoryFile(t, `{"name":"alice","entity_type":"person","observations":[]}


{"name":"bob","entity_type":"person","observations":[]}
`)

	_, stats, err := repairFile(path, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.kept)
	assert.Equal(t, 0, stats.dropped)
}

func TestRepairFileMissingFile(t *testing.T) {
	_, _, err := repairFile(filepath.Join(t.TempDir(), "absent.json"), newTestLogger())
	assert.Error(t, err)
}
