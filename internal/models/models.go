package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTiles is wrapped by ValidateTiles for every rejected payload.
var ErrInvalidTiles = errors.New("invalid tiles")

// Session is a shared bingo board addressed by its session code.
type Session struct {
	ID           int64     `json:"-"`
	Code         string    `json:"sessionCode"`
	PasswordHash string    `json:"-"`
	IsProtected  bool      `json:"isProtected"`
	CreatedAt    time.Time `json:"createdAt"`
	LastUpdated  time.Time `json:"lastUpdated"`
	Tiles        []Tile    `json:"tiles"`
}

// Tile is one board cell made of one or more required items.
type Tile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
	OrLogic     bool   `json:"orLogic"`
	Completed   bool   `json:"completed"`
	Position    int    `json:"-"`
	Items       []Item `json:"items"`
}

// Item is a named quantity target inside a tile.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Current  int    `json:"current"`
	Source   string `json:"source"`
	Position int    `json:"-"`
}

// Done reports whether the item reached its target.
func (i Item) Done() bool {
	return i.Current >= i.Quantity
}

// ratio is the item's progress fraction, saturated at 1.
func (i Item) ratio() float64 {
	if i.Quantity <= 0 {
		return 0
	}
	r := float64(i.Current) / float64(i.Quantity)
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

// IsComplete derives the completion flag from the items and logic mode.
// A tile without items is never complete.
func (t Tile) IsComplete() bool {
	if len(t.Items) == 0 {
		return false
	}
	if t.OrLogic {
		for _, it := range t.Items {
			if it.Done() {
				return true
			}
		}
		return false
	}
	for _, it := range t.Items {
		if !it.Done() {
			return false
		}
	}
	return true
}

// Progress returns the displayed tile progress as a percentage in [0, 100].
func (t Tile) Progress() float64 {
	if len(t.Items) == 0 {
		return 0
	}
	if t.OrLogic {
		best := 0.0
		for _, it := range t.Items {
			if it.Done() {
				return 100
			}
			if r := it.ratio(); r > best {
				best = r
			}
		}
		return best * 100
	}
	total := 0.0
	for _, it := range t.Items {
		total += it.ratio()
	}
	return total / float64(len(t.Items)) * 100
}

// Normalize applies defaults and derived fields in place: quantity below 1
// becomes 1, current is clamped to [0, quantity], positions are dense and
// zero-based, and Completed is recomputed.
func Normalize(tiles []Tile) {
	for i := range tiles {
		t := &tiles[i]
		t.Position = i
		for j := range t.Items {
			it := &t.Items[j]
			it.Position = j
			if it.Quantity < 1 {
				it.Quantity = 1
			}
			if it.Current < 0 {
				it.Current = 0
			}
			if it.Current > it.Quantity {
				it.Current = it.Quantity
			}
		}
		t.Completed = t.IsComplete()
	}
}

// ValidateTiles checks a client supplied tile list and stops at the first
// violation. A nil list means the payload carried no tiles array at all.
func ValidateTiles(tiles []Tile) error {
	if tiles == nil {
		return fmt.Errorf("%w: tiles array is required", ErrInvalidTiles)
	}
	seen := make(map[string]struct{}, len(tiles))
	for i, t := range tiles {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("%w: tile %d has no id", ErrInvalidTiles, i)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: duplicate tile id %q", ErrInvalidTiles, t.ID)
		}
		seen[t.ID] = struct{}{}
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: tile %q has no name", ErrInvalidTiles, t.ID)
		}
		for j, it := range t.Items {
			if strings.TrimSpace(it.Name) == "" {
				return fmt.Errorf("%w: item %d of tile %q has no name", ErrInvalidTiles, j, t.ID)
			}
			if it.Quantity < 0 {
				return fmt.Errorf("%w: item %q has negative quantity", ErrInvalidTiles, it.Name)
			}
			if it.Current < 0 {
				return fmt.Errorf("%w: item %q has negative progress", ErrInvalidTiles, it.Name)
			}
		}
	}
	return nil
}

// CloneTiles returns a deep copy so callers cannot alias internal state.
func CloneTiles(tiles []Tile) []Tile {
	if tiles == nil {
		return nil
	}
	out := make([]Tile, len(tiles))
	for i, t := range tiles {
		out[i] = t
		if t.Items != nil {
			out[i].Items = append([]Item(nil), t.Items...)
		}
	}
	return out
}
