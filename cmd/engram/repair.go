package engram

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"github.com/spf13/cobra"

	"github.com/engramkit/engram/pkg/config"
	"github.com/engramkit/engram/pkg/logger"
	"github.com/engramkit/engram/pkg/store"
	"github.com/engramkit/engram/pkg/types"
)

// Lines longer than this are treated as corruption rather than data.
const maxRepairLineBytes = 4 << 20

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair a corrupted memory file",
	Long: `Repair a memory file in place or into a new file.

Each line is decoded as an entity or relation record. Lines that fail to
decode are passed through a JSON repair pass and decoded again; lines that
still fail are dropped with a warning, as are duplicate records (the first
occurrence wins). The cleaned file is written with the same atomic replace
used by the store, so a crash mid-repair never corrupts the original.`,
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)

	repairCmd.Flags().String("in", "", "Memory file to repair (default: the configured memory file)")
	repairCmd.Flags().String("out", "", "Destination file (default: repair in place)")
	repairCmd.Flags().Bool("dry-run", false, "Report what would change without writing")
}

func runRepair(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	inPath, _ := cmd.Flags().GetString("in")
	if inPath == "" {
		inPath, err = cfg.Storage.ResolvePath()
		if err != nil {
			return fmt.Errorf("failed to resolve memory file: %w", err)
		}
	}
	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		outPath = inPath
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	graph, stats, err := repairFile(inPath, log)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Printf("%s: %d lines kept (%d repaired), %d dropped (dry run, nothing written)\n",
			inPath, stats.kept, stats.repaired, stats.dropped)
		return nil
	}

	out, err := store.NewJSONLStore(outPath, log)
	if err != nil {
		return err
	}
	if err := out.Save(cmd.Context(), graph); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	fmt.Printf("%s: %d lines kept (%d repaired), %d dropped, written to %s\n",
		inPath, stats.kept, stats.repaired, stats.dropped, outPath)
	return nil
}

type repairStats struct {
	kept     int
	repaired int
	dropped  int
}

// repairFile reads a possibly damaged memory file and returns the clean
// graph it still contains. Unlike the store loader it never aborts on a
// bad line; it repairs or drops and keeps going.
func repairFile(path string, log *slog.Logger) (*types.KnowledgeGraph, repairStats, error) {
	var stats repairStats

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	graph := types.NewKnowledgeGraph()
	seenEntities := make(map[string]bool)
	seenRelations := make(map[types.Relation]bool)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxRepairLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		entity, relation, err := store.DecodeLine(line)
		if err != nil {
			fixed, repErr := jsonrepair.JSONRepair(string(line))
			if repErr == nil {
				entity, relation, err = store.DecodeLine([]byte(fixed))
			}
			if err != nil {
				stats.dropped++
				log.Warn("dropping irreparable line", "line", lineNo, "error", err)
				continue
			}
			stats.repaired++
		}

		switch {
		case entity != nil:
			if seenEntities[entity.Name] {
				stats.dropped++
				log.Warn("dropping duplicate entity", "line", lineNo, "name", entity.Name)
				continue
			}
			seenEntities[entity.Name] = true
			graph.Entities = append(graph.Entities, *entity)
		case relation != nil:
			if seenRelations[*relation] {
				stats.dropped++
				log.Warn("dropping duplicate relation", "line", lineNo,
					"from", relation.FromEntity,
					"to", relation.ToEntity,
					"type", relation.RelationType)
				continue
			}
			seenRelations[*relation] = true
			graph.Relations = append(graph.Relations, *relation)
		}
		stats.kept++
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return graph, stats, nil
}
