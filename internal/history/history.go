// Package history keeps a JSON log of published catalog builds under the llmdb home.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fbettag/llmdb/internal/config"
)

// Build summarizes one published snapshot.
type Build struct {
	ID          string         `json:"id"`
	Epoch       uint64         `json:"epoch"`
	GeneratedAt time.Time      `json:"generated_at"`
	RecordedAt  time.Time      `json:"recorded_at"`
	Providers   int            `json:"providers"`
	Models      int            `json:"models"`
	Dropped     map[string]int `json:"dropped,omitempty"`
	Sources     []string       `json:"sources"`
}

const (
	historyFile = "history.json"
	// MaxEntries bounds the log; the oldest builds are discarded first.
	MaxEntries = 200
)

// Record appends b, assigning an id when it has none.
func Record(b Build) (Build, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.RecordedAt = time.Now().UTC()
	store, err := loadStore()
	if err != nil {
		return Build{}, err
	}
	store[b.ID] = b
	if len(store) > MaxEntries {
		builds := sorted(store)
		for _, old := range builds[MaxEntries:] {
			delete(store, old.ID)
		}
	}
	if err := writeStore(store); err != nil {
		return Build{}, err
	}
	return b, nil
}

// Get returns a build by id.
func Get(id string) (Build, error) {
	store, err := loadStore()
	if err != nil {
		return Build{}, err
	}
	b, ok := store[id]
	if !ok {
		return Build{}, fmt.Errorf("build %s not found", id)
	}
	return b, nil
}

// List returns up to limit builds, newest first. A limit of 0 returns everything.
func List(limit int) ([]Build, error) {
	store, err := loadStore()
	if err != nil {
		return nil, err
	}
	builds := sorted(store)
	if limit > 0 && len(builds) > limit {
		builds = builds[:limit]
	}
	return builds, nil
}

func sorted(store map[string]Build) []Build {
	builds := make([]Build, 0, len(store))
	for _, b := range store {
		builds = append(builds, b)
	}
	sort.Slice(builds, func(i, j int) bool {
		if !builds[i].RecordedAt.Equal(builds[j].RecordedAt) {
			return builds[i].RecordedAt.After(builds[j].RecordedAt)
		}
		return builds[i].ID < builds[j].ID
	})
	return builds
}

func loadStore() (map[string]Build, error) {
	path, err := historyPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]Build), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	if len(data) == 0 {
		return make(map[string]Build), nil
	}
	var store map[string]Build
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parsing history: %w", err)
	}
	if store == nil {
		store = make(map[string]Build)
	}
	return store, nil
}

func writeStore(store map[string]Build) error {
	path, err := historyPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

func historyPath() (string, error) {
	dir, err := config.Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, historyFile), nil
}
