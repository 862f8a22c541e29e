// Package classify detects when the assistant's last output is waiting for
// user input.
package classify

import (
	"regexp"
	"strings"
)

// Tag labels the kind of input the assistant appears to be waiting for.
type Tag string

const (
	None           Tag = ""
	YesNo          Tag = "YES_NO"
	Enter          Tag = "ENTER"
	Question       Tag = "QUESTION"
	MultipleChoice Tag = "MULTIPLE_CHOICE"
)

// PlanChoices are the fixed options Claude presents with ExitPlanMode.
var PlanChoices = []string{
	"Yes, and auto-accept edits",
	"Yes, and manually approve edits",
	"No, keep planning",
	"No, tell Claude what to do differently",
}

var (
	yesNoRe = regexp.MustCompile(`(?i)\(y/n\)|\[y/n\]|confirm\?`)
	enterRe = regexp.MustCompile(`(?i)press enter|hit enter`)
)

// Classify tags the assistant's tail text. hasExitPlanMode takes precedence:
// a pending plan approval is always multiple-choice regardless of the text.
func Classify(tail string, hasExitPlanMode bool) Tag {
	if hasExitPlanMode {
		return MultipleChoice
	}
	trimmed := strings.TrimSpace(tail)
	if trimmed == "" {
		return None
	}
	if yesNoRe.MatchString(trimmed) {
		return YesNo
	}
	if enterRe.MatchString(trimmed) {
		return Enter
	}
	// Short trailing questions ("ok?") are rhetorical noise, not prompts.
	if strings.HasSuffix(trimmed, "?") && len(trimmed) > 10 {
		return Question
	}
	return None
}
