// Package prompt provides the small interactive pieces of the init flow.
package prompt

import (
	"github.com/AlecAivazis/survey/v2"
)

// Confirm asks for user confirmation.
func Confirm(message string, def bool) bool {
	confirmed := def
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}
	_ = survey.AskOne(prompt, &confirmed)

	return confirmed
}

// Select asks the user to pick one of options, preselecting def.
func Select(message string, options []string, def string) (string, error) {
	var selected string

	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: def,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}

	return selected, nil
}
