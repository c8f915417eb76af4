package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/manifoldco/promptui"
)

// ErrCancelled is returned when the user aborts a prompt
var ErrCancelled = errors.New("selection cancelled by user")

// SelectOption is one entry of a detailed selection list
type SelectOption struct {
	Label  string
	Detail string
	Value  string
}

// FuzzySearcher returns a promptui searcher matching option labels and
// details against the input with fuzzy, case-insensitive matching.
func FuzzySearcher(options []SelectOption) func(input string, index int) bool {
	return func(input string, index int) bool {
		if index < 0 || index >= len(options) {
			return false
		}
		input = strings.TrimSpace(input)
		if input == "" {
			return true
		}
		opt := options[index]
		return fuzzy.MatchNormalizedFold(input, opt.Label) ||
			fuzzy.MatchNormalizedFold(input, opt.Value)
	}
}

// SelectPromptDetailed presents options with details and fuzzy search
func SelectPromptDetailed(label string, options []SelectOption) (int, SelectOption, error) {
	if len(options) == 0 {
		return -1, SelectOption{}, errors.New("nothing to select")
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "▸ {{ .Label | cyan }} ({{ .Detail | faint }})",
		Inactive: "  {{ .Label | faint }} ({{ .Detail | faint }})",
		Selected: "▸ {{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:             label,
		Items:             options,
		Templates:         templates,
		Size:              min(10, len(options)),
		Searcher:          FuzzySearcher(options),
		StartInSearchMode: len(options) > 10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return -1, SelectOption{}, ErrCancelled
		}
		return -1, SelectOption{}, fmt.Errorf("run prompt: %w", err)
	}

	return index, options[index], nil
}

// ConfirmPrompt asks a yes/no confirmation question
func ConfirmPrompt(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, ErrCancelled
		}
		return false, err
	}

	// promptui returns "y" for yes
	return strings.EqualFold(result, "y"), nil
}
