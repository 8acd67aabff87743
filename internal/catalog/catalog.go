// Package catalog provides item-name suggestions backed by the OSRS item
// mapping feed.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultURL is the public item mapping endpoint.
	DefaultURL = "https://prices.runescape.wiki/api/v1/osrs/mapping"
	// MinQueryLength is the shortest query that yields suggestions.
	MinQueryLength = 2
	// MaxSuggestions caps the number of suggestions.
	MaxSuggestions = 10
)

// Entry is one tradeable item.
type Entry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Catalog is an immutable item list.
type Catalog struct {
	entries []Entry
}

// New builds a catalog from entries.
func New(entries []Entry) *Catalog {
	return &Catalog{entries: entries}
}

// Len reports the number of items.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Fetch downloads the mapping feed. Callers that only need suggestions
// should use Load, which never fails.
func Fetch(ctx context.Context, client *http.Client, url string) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	// The wiki API rejects requests without a descriptive agent.
	req.Header.Set("User-Agent", "bingo-tracker")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: unexpected status %s", resp.Status)
	}

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(entries), nil
}

// Load fetches the catalog, degrading to an empty one on any failure.
func Load(ctx context.Context, url string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	client := &http.Client{Timeout: 15 * time.Second}

	c, err := Fetch(ctx, client, url)
	if err != nil {
		logger.Warn("item catalog unavailable", slog.String("url", url), slog.String("error", err.Error()))
		return New(nil)
	}
	logger.Debug("item catalog loaded", slog.Int("items", c.Len()))
	return c
}

// Suggest returns up to MaxSuggestions item names containing query,
// ignoring case, in catalog order.
func (c *Catalog) Suggest(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < MinQueryLength {
		return nil
	}

	var out []string
	for _, e := range c.entries {
		if strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e.Name)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}
