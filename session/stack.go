package session

import (
	"net/url"
	"regexp"
	"strings"
)

const defaultHost = "mc.exacttarget.com"

var (
	exactTargetHostRe = regexp.MustCompile(`mc\.([^.]+)\.exacttarget\.com`)
	marketingAppsRe   = regexp.MustCompile(`([^.]+)\.marketingcloudapps\.com`)
	stackNameRe       = regexp.MustCompile(`^s\d+$`)
)

// NormalizeStack brings stack to canonical form without trailing dot, s1 is
// represented by empty string. Host names and page addresses are accepted
// too.
func NormalizeStack(stack string) string {
	s := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(stack), "."))
	if strings.ContainsAny(s, "./") {
		s = strings.TrimSuffix(DetectStack(s), ".")
	}
	if s == "s1" {
		return ""
	}
	return s
}

// BaseURL returns Marketing Cloud application root for the stack.
func BaseURL(stack string) string {
	s := NormalizeStack(stack)
	if len(s) == 0 {
		return "https://" + defaultHost
	}
	return "https://mc." + s + ".exacttarget.com"
}

// DetectStack extracts stack from Marketing Cloud page address. Result has
// trailing dot ("s7.") or is empty when address does not belong to known
// hosts.
func DetectStack(rawURL string) string {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && len(u.Hostname()) > 0 {
		host = u.Hostname()
	}
	host = strings.ToLower(host)

	if m := exactTargetHostRe.FindStringSubmatch(host); m != nil && m[1] != "exacttarget" {
		return m[1] + "."
	}
	// hosted applications: <app>.<stack>.marketingcloudapps.com
	if m := marketingAppsRe.FindStringSubmatch(host); m != nil && stackNameRe.MatchString(m[1]) {
		return m[1] + "."
	}
	return ""
}
