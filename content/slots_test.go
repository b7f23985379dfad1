package content

import (
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"mcsave/mcapi"
)

func TestCompileSlots(t *testing.T) {
	asset := &mcapi.Asset{
		ID: 1,
		Views: mcapi.Views{HTML: &mcapi.View{
			Content: `<body><div data-slot="header">old</div><p>body</p></body>`,
			Slots: mcapi.Slots{{
				Name:   "header",
				Blocks: mcapi.Blocks{{Content: "A"}, {SuperContent: "B"}},
			}},
		}},
	}

	got := CompileSlots(asset, zaptest.NewLogger(t))
	want := `<body>AB<p>body</p></body>`
	if got != want {
		t.Errorf("CompileSlots() = %q, want %q", got, want)
	}
}

func TestCompileSlots_FromJSON(t *testing.T) {
	payload := `{
		"id": 7,
		"name": "Template email",
		"views": {
			"html": {
				"content": "<table><tr><td data-slot='main'>\n<p>placeholder</p>\n</td></tr></table>%%=ContentBlockByKey(\"legal\")=%%",
				"slots": {
					"main": {
						"blocks": {
							"b1": {"content": "<h1>Hi</h1>"},
							"b2": {"content": "%%=ContentBlockByKey(\"promo\")=%%"}
						}
					},
					"missing": {"blocks": {"b3": {"content": "lost"}}}
				}
			}
		},
		"blocks": {
			"x": {"customerKey": "promo", "content": "<p>Promo</p>"},
			"y": {"customerKey": "legal", "content": "<small>Legal</small>"}
		}
	}`

	var asset mcapi.Asset
	if err := json.Unmarshal([]byte(payload), &asset); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	got := CompileSlots(&asset, zaptest.NewLogger(t))
	want := `<table><tr><h1>Hi</h1><p>Promo</p></tr></table><small>Legal</small>`
	if got != want {
		t.Errorf("CompileSlots() = %q, want %q", got, want)
	}
	if strings.Contains(got, "lost") {
		t.Error("content of slot without region must be dropped")
	}
}

func TestReplaceSlotRegions(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		slot     string
		content  string
		want     string
		replaced int
	}{
		{
			name:     "double quotes",
			text:     `x<div class="a" data-slot="s1">old</div>y`,
			slot:     "s1",
			content:  "NEW",
			want:     "xNEWy",
			replaced: 1,
		},
		{
			name:     "case insensitive across lines",
			text:     "<TD data-slot='s1'>\nold\n</td>",
			slot:     "s1",
			content:  "NEW",
			want:     "NEW",
			replaced: 1,
		},
		{
			name:     "every region",
			text:     `<p data-slot="s">1</p>-<p data-slot="s">2</p>`,
			slot:     "s",
			content:  "N",
			want:     "N-N",
			replaced: 2,
		},
		{
			name:     "self closing",
			text:     `<div data-slot="s"/>tail`,
			slot:     "s",
			content:  "N",
			want:     "Ntail",
			replaced: 1,
		},
		{
			name:     "other slot untouched",
			text:     `<div data-slot="other">x</div>`,
			slot:     "s",
			content:  "N",
			want:     `<div data-slot="other">x</div>`,
			replaced: 0,
		},
		{
			name:     "slot name case sensitive",
			text:     `<div DATA-SLOT="Header">x</div><div data-slot="header">y</div>`,
			slot:     "header",
			content:  "N",
			want:     `<div DATA-SLOT="Header">x</div>N`,
			replaced: 1,
		},
		{
			name:     "name with regexp characters",
			text:     `<div data-slot="a.b">x</div><div data-slot="aXb">y</div>`,
			slot:     "a.b",
			content:  "N",
			want:     `N<div data-slot="aXb">y</div>`,
			replaced: 1,
		},
		{
			name:     "inserted content is not rescanned",
			text:     `<div data-slot="s">x</div>`,
			slot:     "s",
			content:  `<div data-slot="s">again</div>`,
			want:     `<div data-slot="s">again</div>`,
			replaced: 1,
		},
		{
			name:     "unbalanced",
			text:     `<div data-slot="s">x`,
			slot:     "s",
			content:  "N",
			want:     `<div data-slot="s">x`,
			replaced: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := replaceSlotRegions(tt.text, tt.slot, tt.content)
			if got != tt.want {
				t.Errorf("replaceSlotRegions() = %q, want %q", got, tt.want)
			}
			if n != tt.replaced {
				t.Errorf("replaceSlotRegions() replaced %d, want %d", n, tt.replaced)
			}
		})
	}
}
