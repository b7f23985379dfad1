package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	yaml "gopkg.in/yaml.v3"
)

func TestSecretString_Marshal(t *testing.T) {
	tests := []struct {
		name     string
		input    SecretString
		wantJSON string
		wantYAML any
	}{
		{name: "empty", input: "", wantJSON: "null", wantYAML: nil},
		{name: "short", input: "x", wantJSON: `"` + SecretStringValue + `"`, wantYAML: SecretStringValue},
		{name: "cookie", input: "sid=abc; mc_session=def", wantJSON: `"` + SecretStringValue + `"`, wantYAML: SecretStringValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotJSON, err := tt.input.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(gotJSON) != tt.wantJSON {
				t.Errorf("MarshalJSON() = %s, want %s", gotJSON, tt.wantJSON)
			}

			gotYAML, err := tt.input.MarshalYAML()
			if err != nil {
				t.Fatalf("MarshalYAML() error = %v", err)
			}
			if gotYAML != tt.wantYAML {
				t.Errorf("MarshalYAML() = %v, want %v", gotYAML, tt.wantYAML)
			}
		})
	}
}

func TestSecretString_NotLeaked(t *testing.T) {
	type holder struct {
		User   string       `json:"user" yaml:"user"`
		Cookie SecretString `json:"cookie" yaml:"cookie"`
	}
	h := holder{User: "jane", Cookie: "very-secret-cookie"}

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "very-secret-cookie") {
		t.Errorf("json.Marshal() = %s, contains secret", data)
	}

	data, err = yaml.Marshal(h)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	if want := "user: jane\ncookie: <secret>\n"; string(data) != want {
		t.Errorf("yaml.Marshal() = %q, want %q", data, want)
	}

	if got := fmt.Sprintf("%v", h.Cookie); got != SecretStringValue {
		t.Errorf("Sprintf() = %q, want %q", got, SecretStringValue)
	}
	if got := h.Cookie.Value(); got != "very-secret-cookie" {
		t.Errorf("Value() = %q, want original", got)
	}
}

func TestSecretString_Unmarshal(t *testing.T) {
	var h struct {
		Cookie SecretString `yaml:"cookie"`
	}
	if err := yaml.Unmarshal([]byte("cookie: abc=1\n"), &h); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if h.Cookie.Value() != "abc=1" {
		t.Errorf("Cookie = %q, want %q", h.Cookie.Value(), "abc=1")
	}
}
