package session

import "testing"

func TestBaseURL(t *testing.T) {
	tests := []struct {
		stack string
		want  string
	}{
		{"", "https://mc.exacttarget.com"},
		{"s1", "https://mc.exacttarget.com"},
		{"s1.", "https://mc.exacttarget.com"},
		{"s7", "https://mc.s7.exacttarget.com"},
		{"s7.", "https://mc.s7.exacttarget.com"},
		{" S10. ", "https://mc.s10.exacttarget.com"},
	}
	for _, tt := range tests {
		t.Run(tt.stack, func(t *testing.T) {
			if got := BaseURL(tt.stack); got != tt.want {
				t.Errorf("BaseURL(%q) = %q, want %q", tt.stack, got, tt.want)
			}
		})
	}
}

func TestDetectStack(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://mc.s7.exacttarget.com/cloud/#app/Content%20Builder", "s7."},
		{"mc.s50.exacttarget.com", "s50."},
		{"https://mc.exacttarget.com/cloud/", ""},
		{"https://mc.exacttarget.exacttarget.com/", ""},
		{"https://content-builder.s11.marketingcloudapps.com/", "s11."},
		{"https://content-builder.marketingcloudapps.com/", ""},
		{"https://example.com/mc.s7.exacttarget.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := DetectStack(tt.url); got != tt.want {
				t.Errorf("DetectStack(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestNormalizeStack(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"s1", ""},
		{"s1.", ""},
		{"S7.", "s7"},
		{"s7", "s7"},
		{"mc.s10.exacttarget.com", "s10"},
		{"https://mc.s4.exacttarget.com/cloud/#app", "s4"},
		{"mc.exacttarget.com", ""},
	}
	for _, tt := range tests {
		if got := NormalizeStack(tt.in); got != tt.want {
			t.Errorf("NormalizeStack(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
