package tool

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	out := RenderTable(&buf, []string{"Name", "Progress"}, [][]string{{"cat.png", "100%"}, {"dog.png"}}, 2)
	for _, want := range []string{"NAME", "PROGRESS", "cat.png", "100%", "dog.png"} {
		if !strings.Contains(out, want) {
			t.Errorf("Table misses %q:\n%s", want, out)
		}
	}
	if IsTerminal(&buf) {
		t.Error("A buffer is not a terminal")
	}
	if RenderTable(&buf, nil, nil) != "" {
		t.Error("Expected no output without headers")
	}
}
