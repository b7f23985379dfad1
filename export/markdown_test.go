package export

import (
	"strings"
	"testing"
)

func TestMarkdownRender(t *testing.T) {
	md := newMarkdown()

	tests := []struct {
		name     string
		html     string
		contains []string
	}{
		{"empty", "", nil},
		{"heading", "<h1>Title</h1><p>Some <strong>bold</strong> text</p>", []string{"# Title", "**bold**"}},
		{"link", `<p><a href="https://example.com">site</a></p>`, []string{"[site](https://example.com)"}},
		{"table", "<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>", []string{"| A", "| 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := md.Render(tt.html)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if len(tt.html) == 0 {
				if len(got) != 0 {
					t.Errorf("Render() = %q, want empty", got)
				}
				return
			}
			if !strings.HasSuffix(got, "\n") {
				t.Errorf("Render() = %q, want trailing newline", got)
			}
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Render() = %q, missing %q", got, s)
				}
			}
		})
	}
}
