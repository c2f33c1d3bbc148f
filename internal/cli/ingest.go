package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/ottolearn-tutor/internal/app"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor"
)

type manifest struct {
	Chunks []tutor.ChunkInput `yaml:"chunks"`
}

// LoadManifest reads a chunk manifest. YAML and JSON are both accepted, either as a bare
// list of chunks or as a mapping with a "chunks" key.
func LoadManifest(path string) ([]tutor.ChunkInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("manifest %s is empty", path)
	}
	doc := node.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var chunks []tutor.ChunkInput
		if err := doc.Decode(&chunks); err != nil {
			return nil, fmt.Errorf("decode manifest %s: %w", path, err)
		}
		return chunks, nil
	case yaml.MappingNode:
		var m manifest
		if err := doc.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode manifest %s: %w", path, err)
		}
		return m.Chunks, nil
	default:
		return nil, fmt.Errorf("manifest %s must be a list or a mapping with chunks", path)
	}
}

func newIngestCmd(rt *runtime) *cobra.Command {
	var courseID, file string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Replace a course's chunk set from a manifest file",
		Long: `Replace every chunk of a course with the chunks in a YAML or JSON manifest.
Chunks without an embedding are embedded from their content first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chunks, err := LoadManifest(file)
			if err != nil {
				return err
			}
			a, err := app.NewCore(cmd.Context(), rt.log, rt.cfg)
			if err != nil {
				return err
			}
			defer rt.closeApp(a)

			stats, err := a.Services.Ingest.Replace(cmd.Context(), strings.TrimSpace(courseID), chunks)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{
				"course_id": courseID,
				"deleted":   stats.Deleted,
				"inserted":  stats.Inserted,
				"batches":   stats.Batches,
			})
		},
	}
	cmd.Flags().StringVar(&courseID, "course", "", "course id (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "chunk manifest, YAML or JSON (required)")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
