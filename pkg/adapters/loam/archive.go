package loam

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/aretw0/loam"
)

// Archive saves a generated script as a markdown document under scripts/.
func (s *Store) Archive(ctx context.Context, script ports.ArchivedScript) error {
	name := strings.TrimSuffix(script.Name, docExt)
	if name == "" {
		return fmt.Errorf("script name cannot be empty")
	}
	err := s.Repo.Save(ctx, &loam.DocumentModel[Metadata]{
		ID:      scriptDir + "/" + name,
		Content: script.Text,
		Data: Metadata{
			Kind:        KindScript,
			Name:        name,
			GeneratedAt: script.GeneratedAt.UTC().Format(time.RFC3339),
			Cards:       script.Cards,
			Connections: script.Connections,
		},
	})
	if err != nil {
		return fmt.Errorf("loam save failed for script %s: %w", name, err)
	}
	return nil
}

// Scripts returns the archived scripts, newest first.
func (s *Store) Scripts(ctx context.Context) ([]ports.ArchivedScript, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	var out []ports.ArchivedScript
	for _, doc := range docs {
		if doc.Data.Kind != KindScript || doc.Data.Name == "" {
			continue
		}
		// listings carry metadata only
		full, err := s.Repo.Get(ctx, scriptDir+"/"+doc.Data.Name)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for script %s: %w", doc.Data.Name, err)
		}
		// a malformed timestamp sorts last
		generatedAt, _ := time.Parse(time.RFC3339, doc.Data.GeneratedAt)
		out = append(out, ports.ArchivedScript{
			Name:        doc.Data.Name,
			Text:        strings.TrimRight(full.Content, "\n"),
			GeneratedAt: generatedAt,
			Cards:       doc.Data.Cards,
			Connections: doc.Data.Connections,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}
