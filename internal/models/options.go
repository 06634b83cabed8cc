package models

import (
	"errors"
	"fmt"
)

var ErrUnknownChoice = errors.New("unknown choice")

type Display string

const (
	DisplaySwatch Display = "swatch"
	DisplayImage  Display = "image"
	DisplayRadio  Display = "radio"
)

// OptionGroup is a set of mutually exclusive choices. The first choice is
// the default selection.
type OptionGroup struct {
	Key     string                `json:"key" yaml:"key"`
	Label   string                `json:"label" yaml:"label"`
	Display Display               `json:"display" yaml:"display"`
	Choices []CustomizationChoice `json:"choices" yaml:"choices"`
}

func (g OptionGroup) Choice(value string) (CustomizationChoice, bool) {
	for _, c := range g.Choices {
		if c.Value == value {
			return c, true
		}
	}
	return CustomizationChoice{}, false
}

// Select returns the offered choice for value, or ErrUnknownChoice.
func (g OptionGroup) Select(value string) (CustomizationChoice, error) {
	c, ok := g.Choice(value)
	if !ok {
		return CustomizationChoice{}, fmt.Errorf("%s %q: %w", g.Key, value, ErrUnknownChoice)
	}
	return c, nil
}

func (g OptionGroup) Default() CustomizationChoice {
	if len(g.Choices) == 0 {
		return CustomizationChoice{}
	}
	return g.Choices[0]
}
