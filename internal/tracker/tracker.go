// Package tracker holds the local copy of a bingo board and mirrors every
// change to durable storage.
package tracker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"

	"bingo/internal/models"
)

// Slot is the storage key the board is kept under.
const Slot = "bingoTiles"

var (
	ErrTileNotFound = errors.New("tile not found")
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidTile  = errors.New("a tile needs a name and at least one item")
	ErrNotArray     = errors.New("import payload must be a JSON array")
)

// DefaultTiles is the example board shown before anything was saved.
func DefaultTiles() []models.Tile {
	return []models.Tile{{
		ID:          "example1",
		Name:        "Godwars Boss",
		Description: "Kill any GWD boss",
		Items: []models.Item{
			{Name: "Armadyl hilt", Quantity: 1},
			{Name: "Bandos chestplate", Quantity: 1},
			{Name: "Saradomin sword", Quantity: 1},
		},
	}}
}

// Tracker is the state holder for one local board.
type Tracker struct {
	mu      sync.Mutex
	storage Storage
	tiles   []models.Tile
}

// Open loads the board from storage, seeding the example board when the
// slot is empty.
func Open(storage Storage) (*Tracker, error) {
	t := &Tracker{storage: storage}

	data, err := storage.Load(Slot)
	switch {
	case errors.Is(err, ErrSlotEmpty):
		t.tiles = DefaultTiles()
		return t, nil
	case err != nil:
		return nil, err
	}

	if err := json.Unmarshal(data, &t.tiles); err != nil {
		return nil, fmt.Errorf("decode stored board: %w", err)
	}
	if t.tiles == nil {
		t.tiles = []models.Tile{}
	}
	return t, nil
}

// Tiles returns a copy of the board.
func (t *Tracker) Tiles() []models.Tile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return models.CloneTiles(t.tiles)
}

// Tile returns a copy of one tile.
func (t *Tracker) Tile(id string) (models.Tile, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.index(id)
	if i < 0 {
		return models.Tile{}, ErrTileNotFound
	}
	return models.CloneTiles(t.tiles[i : i+1])[0], nil
}

// TileInput is the editable part of a tile.
type TileInput struct {
	Name        string
	Description string
	Notes       string
	OrLogic     bool
	Items       []models.Item
}

// clean trims text, drops unnamed items and defaults quantities to 1.
func (in TileInput) clean() (TileInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Notes = strings.TrimSpace(in.Notes)

	items := make([]models.Item, 0, len(in.Items))
	for _, it := range in.Items {
		it.Name = strings.TrimSpace(it.Name)
		it.Source = strings.TrimSpace(it.Source)
		if it.Name == "" {
			continue
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		it.Current = 0
		items = append(items, it)
	}
	in.Items = items

	if in.Name == "" || len(in.Items) == 0 {
		return in, ErrInvalidTile
	}
	return in, nil
}

// AddTile appends a new tile with zero progress and returns its id.
func (t *Tracker) AddTile(in TileInput) (string, error) {
	in, err := in.clean()
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	tile := models.Tile{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Notes:       in.Notes,
		OrLogic:     in.OrLogic,
		Items:       in.Items,
	}
	next := append(models.CloneTiles(t.tiles), tile)
	if err := t.commit(next); err != nil {
		return "", err
	}
	return tile.ID, nil
}

// UpdateTile rewrites a tile's definition. Progress carries over by item
// position, clamped to the new quantities.
func (t *Tracker) UpdateTile(id string, in TileInput) error {
	in, err := in.clean()
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.index(id)
	if i < 0 {
		return ErrTileNotFound
	}
	existing := t.tiles[i]
	for idx := range in.Items {
		if idx < len(existing.Items) {
			in.Items[idx].Current = min(existing.Items[idx].Current, in.Items[idx].Quantity)
		}
	}

	existing.Name = in.Name
	existing.Description = in.Description
	existing.Notes = in.Notes
	existing.OrLogic = in.OrLogic
	existing.Items = in.Items
	existing.Completed = existing.IsComplete()
	next := models.CloneTiles(t.tiles)
	next[i] = existing
	return t.commit(next)
}

// DeleteTile removes a tile.
func (t *Tracker) DeleteTile(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.index(id)
	if i < 0 {
		return ErrTileNotFound
	}
	next := models.CloneTiles(t.tiles)
	return t.commit(append(next[:i], next[i+1:]...))
}

// MoveTile moves the tile at index from to index to, shifting the others.
func (t *Tracker) MoveTile(from, to int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if from < 0 || from >= len(t.tiles) || to < 0 || to >= len(t.tiles) {
		return fmt.Errorf("move %d to %d: %w", from, to, ErrTileNotFound)
	}
	if from == to {
		return nil
	}
	next := models.CloneTiles(t.tiles)
	moved := next[from]
	next = append(next[:from], next[from+1:]...)
	next = append(next[:to], append([]models.Tile{moved}, next[to:]...)...)
	return t.commit(next)
}

// Increment adds one to an item's progress, stopping at its quantity.
func (t *Tracker) Increment(id string, item int) error {
	return t.updateItem(id, item, func(it *models.Item) { it.Current++ })
}

// Decrement removes one from an item's progress, stopping at zero.
func (t *Tracker) Decrement(id string, item int) error {
	return t.updateItem(id, item, func(it *models.Item) { it.Current-- })
}

// SetProgress sets an item's progress, clamped to [0, quantity].
func (t *Tracker) SetProgress(id string, item, value int) error {
	return t.updateItem(id, item, func(it *models.Item) { it.Current = value })
}

func (t *Tracker) updateItem(id string, item int, fn func(*models.Item)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.index(id)
	if i < 0 {
		return ErrTileNotFound
	}
	if item < 0 || item >= len(t.tiles[i].Items) {
		return ErrItemNotFound
	}

	next := models.CloneTiles(t.tiles)
	tile := &next[i]
	it := &tile.Items[item]
	fn(it)
	it.Current = max(0, min(it.Current, it.Quantity))
	tile.Completed = tile.IsComplete()
	return t.commit(next)
}

// ToggleComplete flips the manual completion flag. Marking a tile complete
// fills every item; unmarking leaves progress untouched.
func (t *Tracker) ToggleComplete(id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.index(id)
	if i < 0 {
		return false, ErrTileNotFound
	}
	next := models.CloneTiles(t.tiles)
	tile := &next[i]
	tile.Completed = !tile.Completed
	if tile.Completed {
		for j := range tile.Items {
			tile.Items[j].Current = tile.Items[j].Quantity
		}
	}
	if err := t.commit(next); err != nil {
		return !tile.Completed, err
	}
	return tile.Completed, nil
}

// ClearProgress zeroes every item and unmarks every tile.
func (t *Tracker) ClearProgress() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := models.CloneTiles(t.tiles)
	for i := range next {
		next[i].Completed = false
		for j := range next[i].Items {
			next[i].Items[j].Current = 0
		}
	}
	return t.commit(next)
}

// Export serializes the board as indented JSON.
func (t *Tracker) Export() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return json.MarshalIndent(t.tiles, "", "  ")
}

// Import replaces the board with data, which must be a JSON array of tiles.
// Nothing beyond that shape is checked.
func (t *Tracker) Import(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ErrNotArray
	}
	var tiles []models.Tile
	if err := json.Unmarshal(trimmed, &tiles); err != nil {
		return fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	return t.Replace(tiles)
}

// Replace swaps in a whole board, for example one loaded from the server.
func (t *Tracker) Replace(tiles []models.Tile) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := models.CloneTiles(tiles)
	if next == nil {
		next = []models.Tile{}
	}
	return t.commit(next)
}

// Stats summarizes board completion.
type Stats struct {
	Completed int
	Total     int
	Percent   int
}

// Stats counts tiles flagged complete.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Stats{Total: len(t.tiles)}
	for _, tile := range t.tiles {
		if tile.Completed {
			s.Completed++
		}
	}
	if s.Total > 0 {
		s.Percent = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}

func (t *Tracker) index(id string) int {
	for i := range t.tiles {
		if t.tiles[i].ID == id {
			return i
		}
	}
	return -1
}

// commit writes next to storage and only then makes it the current board.
// Callers hold t.mu.
func (t *Tracker) commit(next []models.Tile) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	if err := t.storage.Store(Slot, data); err != nil {
		return fmt.Errorf("persist board: %w", err)
	}
	t.tiles = next
	return nil
}
