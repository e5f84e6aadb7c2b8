package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/dailycast/internal/models"
)

var _ list.Item = optionItem{}

// optionItem wraps a country or topic [models.Option] to implement [list.Item].
type optionItem struct {
	option  models.Option
	current bool
}

func (i optionItem) FilterValue() string { return i.option.Label }
func (i optionItem) Title() string       { return i.option.Label }
func (i optionItem) Description() string {
	if i.current {
		return i.option.Code + " • current"
	}
	return i.option.Code
}

// newOptionList builds a picker over options with the selected code highlighted.
func newOptionList(title string, options []models.Option, selected string, width, height int) list.Model {
	items := make([]list.Item, len(options))
	index := 0
	for i, opt := range options {
		items[i] = optionItem{option: opt, current: opt.Code == selected}
		if opt.Code == selected {
			index = i
		}
	}

	l := list.New(items, list.NewDefaultDelegate(), max(width, 20), max(height, 10))
	l.Title = title
	l.Select(index)
	return l
}
