package classify

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		tail         string
		exitPlanMode bool
		want         Tag
	}{
		{"empty", "", false, None},
		{"plain statement", "Done, all tests pass.", false, None},
		{"yes no paren", "Should I delete the old branch? (y/n)", false, YesNo},
		{"yes no bracket", "Overwrite the file? [y/n]", false, YesNo},
		{"confirm", "Confirm?", false, YesNo},
		{"press enter", "Press Enter to continue", false, Enter},
		{"hit enter", "hit enter when ready", false, Enter},
		{"real question", "Which database should the migration target?", false, Question},
		{"short rhetorical", "ok?", false, None},
		{"plan overrides text", "Done.", true, MultipleChoice},
		{"plan overrides question", "Which one?", true, MultipleChoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.tail, tt.exitPlanMode); got != tt.want {
				t.Errorf("Classify(%q, %v) = %q, want %q", tt.tail, tt.exitPlanMode, got, tt.want)
			}
		})
	}
}

func TestPlanChoicesCount(t *testing.T) {
	if len(PlanChoices) != 4 {
		t.Errorf("PlanChoices has %d entries, want 4", len(PlanChoices))
	}
}
