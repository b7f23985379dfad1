package export

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"mcsave/config"
	"mcsave/content"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Spring Sale", "Spring Sale"},
		{"reserved characters", `a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"trimmed", "  padded  ", "padded"},
		{"control characters", "tab\there", "tab_here"},
		{"long", strings.Repeat("x", 60), strings.Repeat("x", 50)},
		{"long unicode", strings.Repeat("ё", 55), strings.Repeat("ё", 50)},
		{"decomposed", "e\u0301te\u0301", "\u00e9t\u00e9"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.in); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNamer(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		cfg   config.ExportConfig
		asset []content.CompiledAsset
		want  []string
	}{
		{
			name:  "asset names",
			asset: []content.CompiledAsset{{ID: 1, Name: "Welcome"}, {ID: 2, Name: "Promo: Spring"}},
			want:  []string{"Welcome", "Promo_ Spring"},
		},
		{
			name:  "duplicates",
			asset: []content.CompiledAsset{{ID: 1, Name: "Email"}, {ID: 2, Name: "email"}, {ID: 3, Name: "Email"}},
			want:  []string{"Email", "email-1", "Email-2"},
		},
		{
			name:  "empty name",
			asset: []content.CompiledAsset{{ID: 7, Name: " "}},
			want:  []string{"asset-7"},
		},
		{
			name:  "template",
			cfg:   config.ExportConfig{NameTemplate: `{{ .Date }} {{ .ID }} {{ .Name | lower }}`},
			asset: []content.CompiledAsset{{ID: 5, Name: "News"}},
			want:  []string{"2026-03-14 5 news"},
		},
		{
			name:  "template with key fallback",
			cfg:   config.ExportConfig{NameTemplate: `{{ .CustomerKey | default .Name }}`},
			asset: []content.CompiledAsset{{ID: 5, Name: "News", CustomerKey: "news-key"}, {ID: 6, Name: "Other"}},
			want:  []string{"news-key", "Other"},
		},
		{
			name:  "broken template",
			cfg:   config.ExportConfig{NameTemplate: `{{ .Missing`},
			asset: []content.CompiledAsset{{ID: 5, Name: "News"}},
			want:  []string{"News"},
		},
		{
			name:  "transliterate",
			cfg:   config.ExportConfig{FileNameTransliterate: true},
			asset: []content.CompiledAsset{{ID: 1, Name: "Привет мир"}},
			want:  []string{"privet-mir"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNamer(&tt.cfg, "s7", now, zaptest.NewLogger(t))
			for i := range tt.asset {
				if got := n.Name(&tt.asset[i]); got != tt.want[i] {
					t.Errorf("Name(%q) = %q, want %q", tt.asset[i].Name, got, tt.want[i])
				}
			}
		})
	}
}
