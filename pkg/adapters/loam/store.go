package loam

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
)

const (
	slotDir   = "slots"
	scriptDir = "scripts"
	docExt    = ".md"
)

// Store keeps slots and archived scripts as markdown documents in a Loam repository.
// Slot values are the document body; the frontmatter records the original key.
type Store struct {
	Repo *loam.TypedRepository[Metadata]
	root string
}

// New adapts an initialized repository rooted at root.
func New(repo core.Repository, root string) *Store {
	return &Store{
		Repo: loam.NewTypedRepository[Metadata](repo),
		root: root,
	}
}

// Open initializes a repository at path without versioning.
func Open(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", abs, err)
	}
	repo, err := loam.Init(abs, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("failed to init loam repo: %w", err)
	}
	return New(repo, abs), nil
}

// slotID escapes the key into a single path segment. Dots are escaped too, since
// loam reads the text after the last dot as the document extension.
func slotID(key string) string {
	return slotDir + "/" + strings.ReplaceAll(url.QueryEscape(key), ".", "%2E")
}

func (s *Store) exists(id string) bool {
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(id)+docExt))
	return err == nil
}

// Put saves the slot document.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	err := s.Repo.Save(ctx, &loam.DocumentModel[Metadata]{
		ID:      slotID(key),
		Content: string(value),
		Data:    Metadata{Kind: KindSlot, Slot: key},
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", key, err)
	}
	return nil
}

// Get reads the slot document body.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	id := slotID(key)
	if !s.exists(id) {
		return nil, domain.ErrSlotNotFound
	}
	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", key, err)
	}
	// the markdown body may gain a trailing newline on disk
	return []byte(strings.TrimRight(doc.Content, "\n")), nil
}

// Delete removes the slot document from disk.
func (s *Store) Delete(ctx context.Context, key string) error {
	path := filepath.Join(s.root, filepath.FromSlash(slotID(key))+docExt)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

// List returns the stored slots.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	keys := []string{}
	for _, doc := range docs {
		if doc.Data.Kind != KindSlot || doc.Data.Slot == "" {
			continue
		}
		keys = append(keys, doc.Data.Slot)
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch implements ports.Watchable for the flow slot.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := s.Repo.Watch(ctx, slotDir+"/*"+docExt)
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	flowID := slotID(ports.SlotFlow)
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				if strings.TrimSuffix(filepath.ToSlash(evt.ID), docExt) != flowID {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}
