package content

import (
	"cmp"
	"html"
	"regexp"
	"slices"
	"strings"
)

// Kind of content block reference.
// ENUM(ById, ByKey, ByName)
type Kind int

// Reference is a single content block placeholder found in HTML.
type Reference struct {
	Kind     Kind   `json:"kind"`
	Value    string `json:"value"`
	RawMatch string `json:"raw"`

	// position of RawMatch in the scanned text
	start, end int
}

type refKey struct {
	kind  Kind
	value string
}

func (r Reference) key() refKey {
	return refKey{kind: r.Kind, value: r.Value}
}

func (r Reference) String() string {
	return "ContentBlock" + r.Kind.String() + "(" + r.Value + ")"
}

// %%=ContentBlockByKey("key")=%%, %%=ContentBlockById(123)=%%, quotes could
// be single or double, keyword is case insensitive.
var placeholderRe = regexp.MustCompile(`%%=\s*(?i:ContentBlockBy(Key|Id|Name))\s*\(\s*(?:"([^"]+)"|'([^']+)'|(\d+))\s*\)\s*=%%`)

// ExtractReferences returns all content block references in document order,
// one entry per occurrence.
func ExtractReferences(text string) []Reference {
	var refs []Reference
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(text, -1) {
		ref := Reference{RawMatch: text[m[0]:m[1]], start: m[0], end: m[1]}

		var quoted bool
		switch {
		case m[4] >= 0:
			ref.Value, quoted = text[m[4]:m[5]], true
		case m[6] >= 0:
			ref.Value, quoted = text[m[6]:m[7]], true
		default:
			ref.Value = text[m[8]:m[9]]
		}

		switch strings.ToLower(text[m[2]:m[3]]) {
		case "key":
			ref.Kind = KindByKey
		case "name":
			ref.Kind = KindByName
		case "id":
			ref.Kind = KindById
			ref.Value = strings.TrimSpace(ref.Value)
			if !isDigits(ref.Value) {
				continue
			}
		}
		if !quoted && ref.Kind != KindById {
			// only ids could be unquoted
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

func isDigits(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splice replaces every reference with its fragment. References must come
// from ExtractReferences(text) and fragments must be in the same order.
func splice(text string, refs []Reference, fragments []string) string {
	var (
		sb   strings.Builder
		last int
	)
	for i, ref := range refs {
		sb.WriteString(text[last:ref.start])
		sb.WriteString(fragments[i])
		last = ref.end
	}
	sb.WriteString(text[last:])
	return sb.String()
}

var imageURLRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<img\b[^>]*?\ssrc\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`),
	regexp.MustCompile(`(?i)background-image\s*:\s*url\(\s*(?:"([^"]*)"|'([^']*)'|([^\s"')]+))\s*\)`),
	regexp.MustCompile(`(?i)background\s*:[^;{}<>"']*?url\(\s*(?:"([^"]*)"|'([^']*)'|([^\s"')]+))\s*\)`),
}

// ExtractImageURLs returns remote image addresses referenced from img tags
// and CSS backgrounds, unique and in order of first appearance. Embedded data
// URLs are skipped.
func ExtractImageURLs(text string) []string {
	type found struct {
		pos int
		url string
	}

	var all []found
	for _, re := range imageURLRes {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			for g := 2; g < len(m); g += 2 {
				if m[g] >= 0 {
					all = append(all, found{pos: m[g], url: trimEntityQuotes(strings.TrimSpace(text[m[g]:m[g+1]]))})
					break
				}
			}
		}
	}
	slices.SortStableFunc(all, func(a, b found) int { return cmp.Compare(a.pos, b.pos) })

	var (
		urls []string
		seen = make(map[string]bool)
	)
	for _, f := range all {
		if len(f.url) == 0 || seen[f.url] || isDataURL(f.url) {
			continue
		}
		seen[f.url] = true
		urls = append(urls, f.url)
	}
	return urls
}

// trimEntityQuotes removes quotes written as character references, which is
// how quoted CSS url() ends up inside style attribute.
func trimEntityQuotes(u string) string {
	for _, q := range []string{"&quot;", "&#34;", "&#39;", "&apos;"} {
		if len(u) > 2*len(q) && strings.HasPrefix(u, q) && strings.HasSuffix(u, q) {
			return strings.TrimSpace(u[len(q) : len(u)-len(q)])
		}
	}
	return u
}

func isDataURL(u string) bool {
	s := strings.TrimSpace(html.UnescapeString(u))
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}
