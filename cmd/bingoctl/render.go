package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"bingo/internal/models"
	"bingo/internal/tracker"
)

const (
	tileWidth   = 30
	tilesPerRow = 3
	barWidth    = 20
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	tileStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Width(tileWidth).
			Padding(0, 1)

	doneTileStyle = tileStyle.
			BorderForeground(lipgloss.Color("42"))

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	doneItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	anyTag = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// renderBoard draws the board as a grid of tiles followed by the stats line.
func renderBoard(tiles []models.Tile, stats tracker.Stats) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("OSRS Bingo"))
	b.WriteString("\n")

	if len(tiles) == 0 {
		b.WriteString(dimStyle.Render("No tiles yet. Add one with: bingoctl add -name ... -item ..."))
		b.WriteString("\n")
	}

	var rows []string
	for start := 0; start < len(tiles); start += tilesPerRow {
		end := min(start+tilesPerRow, len(tiles))
		cells := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cells = append(cells, renderTile(i, tiles[i]))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	if len(rows) > 0 {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("%d/%d tiles complete (%d%%)\n", stats.Completed, stats.Total, stats.Percent))
	return b.String()
}

func renderTile(index int, tile models.Tile) string {
	var lines []string

	header := nameStyle.Render(fmt.Sprintf("%d. %s", index, tile.Name))
	if tile.OrLogic {
		header += " " + anyTag.Render("ANY")
	}
	lines = append(lines, header)
	lines = append(lines, dimStyle.Render(tile.ID))
	if tile.Description != "" {
		lines = append(lines, tile.Description)
	}

	for i, it := range tile.Items {
		line := fmt.Sprintf("[%d] %d/%d %s", i, it.Current, it.Quantity, it.Name)
		if it.Done() {
			line = doneItemStyle.Render(line)
		}
		lines = append(lines, line)
	}

	lines = append(lines, progressBar(tile.Progress()))
	if tile.Notes != "" {
		lines = append(lines, dimStyle.Render(tile.Notes))
	}

	style := tileStyle
	if tile.Completed {
		style = doneTileStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func progressBar(percent float64) string {
	filled := int(percent / 100 * barWidth)
	filled = max(0, min(filled, barWidth))
	return fmt.Sprintf("%s%s %3.0f%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", barWidth-filled),
		percent)
}
