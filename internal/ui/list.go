package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/Topasm/MP3toSpotify/internal/duplicates"
)

var _ list.Item = groupItem{}

// groupItem wraps [duplicates.Group] to implement [list.Item]. All items
// share the picked set, so toggling repaints without rebuilding the list.
type groupItem struct {
	group  duplicates.Group
	picked map[string]bool
}

func (i groupItem) FilterValue() string { return i.group.Name }

func (i groupItem) Title() string {
	mark := "[ ]"
	if i.picked[i.group.ID] {
		mark = "[x]"
	}
	label := i.group.Name
	if i.group.Artist != "" {
		label = fmt.Sprintf("%s - %s", i.group.Artist, i.group.Name)
	}
	return fmt.Sprintf("%s %s", mark, label)
}

func (i groupItem) Description() string {
	return fmt.Sprintf("%d copies at positions %s", i.group.Occurrences(), positionList(i.group.Positions))
}

func positionList(positions []int) string {
	out := ""
	for n, p := range positions {
		if n > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%d", p)
	}
	return out
}
