package content

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"mcsave/mcapi"
)

// CompileSlots inlines slot content and attached blocks into asset HTML.
// Slots go first since their content may bring placeholders for attached
// blocks. Slot without matching region in HTML is dropped.
func CompileSlots(asset *mcapi.Asset, log *zap.Logger) string {
	text := asset.HTMLContent()

	for _, slot := range asset.HTMLSlots() {
		var sb strings.Builder
		for _, b := range slot.Blocks {
			if len(b.Content) > 0 {
				sb.WriteString(b.Content)
			} else {
				sb.WriteString(b.SuperContent)
			}
		}

		var replaced int
		text, replaced = replaceSlotRegions(text, slot.Name, sb.String())
		if replaced == 0 {
			log.Debug("Slot region not found, content dropped", zap.Int64("asset", asset.ID), zap.String("slot", slot.Name))
		}
	}

	for _, b := range asset.AttachedBlocks() {
		if len(b.CustomerKey) == 0 || len(b.Content) == 0 {
			continue
		}
		text = byKeyPattern(b.CustomerKey).ReplaceAllLiteralString(text, b.Content)
	}
	return text
}

func slotOpenTagPattern(name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	// slot name is matched exactly, tag and attribute names in any case
	return regexp.MustCompile(`(?s)<((?i:[a-z][a-z0-9-]*))\b[^>]*?\s(?i:data-slot)\s*=\s*(?:"` + q + `"|'` + q + `')[^>]*>`)
}

func byKeyPattern(key string) *regexp.Regexp {
	q := regexp.QuoteMeta(key)
	return regexp.MustCompile(`%%=\s*(?i:ContentBlockByKey)\s*\(\s*(?:"` + q + `"|'` + q + `')\s*\)\s*=%%`)
}

// replaceSlotRegions replaces every element marked with data-slot attribute
// (open tag through first matching close tag) with content. Inserted content
// is not scanned again.
func replaceSlotRegions(text, name, content string) (string, int) {
	open := slotOpenTagPattern(name)

	var (
		sb       strings.Builder
		replaced int
		pos      int
	)
	for pos < len(text) {
		m := open.FindStringSubmatchIndex(text[pos:])
		if m == nil {
			break
		}
		start, openEnd := pos+m[0], pos+m[1]
		tag := text[pos+m[2] : pos+m[3]]

		end := openEnd
		if !strings.HasSuffix(text[start:openEnd], "/>") {
			closeRe := regexp.MustCompile(`(?i)</` + regexp.QuoteMeta(tag) + `\s*>`)
			c := closeRe.FindStringIndex(text[openEnd:])
			if c == nil {
				// unbalanced markup, leave as is
				sb.WriteString(text[pos:openEnd])
				pos = openEnd
				continue
			}
			end = openEnd + c[1]
		}

		sb.WriteString(text[pos:start])
		sb.WriteString(content)
		pos = end
		replaced++
	}
	sb.WriteString(text[pos:])
	return sb.String(), replaced
}
