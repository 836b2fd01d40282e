package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if set.Planner == "" {
		t.Fatal("planner prompt must not be empty")
	}
	if strings.ContainsAny(set.Planner, "{}") {
		t.Fatal("planner prompt is an FString template; literal braces must not appear")
	}
}
