package provider

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"autosuggest/internal/domain"
)

// Provider answers a search term with an ordered list of suggestions
type Provider interface {
	Search(ctx context.Context, term string) ([]domain.Item, error)
}

// Memory matches terms against an in-memory list. Items whose label contains
// the term are returned in list order.
type Memory struct {
	mu    sync.RWMutex
	items []domain.Item
	limit int
}

// NewMemory creates a provider over items. limit <= 0 means unbounded.
func NewMemory(items []domain.Item, limit int) *Memory {
	return &Memory{items: items, limit: limit}
}

// Search implements Provider
func (m *Memory) Search(ctx context.Context, term string) ([]domain.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Item
	for _, item := range m.items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strings.Contains(item.Label, term) {
			continue
		}
		out = append(out, item)
		if m.limit > 0 && len(out) == m.limit {
			break
		}
	}
	return out, nil
}

// Replace swaps the item list
func (m *Memory) Replace(items []domain.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
}

// Len returns the number of items held
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// LoadFile reads a suggestion list from path
func LoadFile(path string) ([]domain.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()

	items, err := ParseItems(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read source %s: %w", path, err)
	}
	return items, nil
}

// ParseItems reads one suggestion per line. A line "label<TAB>id" yields a
// field-mapping item; blank lines and lines starting with # are skipped.
func ParseItems(r io.Reader) ([]domain.Item, error) {
	var items []domain.Item
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		label, id, found := strings.Cut(line, "\t")
		if !found {
			items = append(items, domain.Text(line))
			continue
		}
		items = append(items, domain.Item{
			Label:  label,
			Fields: map[string]string{"label": label, "id": strings.TrimSpace(id)},
		})
	}
	return items, scanner.Err()
}
