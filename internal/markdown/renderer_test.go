package markdown

import (
	"strings"
	"testing"
)

func TestRenderer_Basics(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"heading", "# Today", "<h1>Today</h1>"},
		{"emphasis", "some *notes*", "<em>notes</em>"},
		{"link", "[go](https://go.dev)", `<a href="https://go.dev">go</a>`},
		{"gfm strikethrough", "~~gone~~", "<del>gone</del>"},
		{"gfm table", "| a | b |\n|---|---|\n| 1 | 2 |", "<table>"},
		{"gfm autolink", "see https://go.dev", `<a href="https://go.dev">`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(tt.source)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Render(%q) = %q, want substring %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestRenderer_RawHTMLNotPassedThrough(t *testing.T) {
	r := NewRenderer()

	got, err := r.Render(`before <script>alert("x")</script> after`)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML leaked into output: %q", got)
	}
}

func TestRenderer_EmptyInput(t *testing.T) {
	r := NewRenderer()

	got, err := r.Render("")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.TrimSpace(got) != "" {
		t.Errorf("Render(\"\") = %q, want empty", got)
	}
}
