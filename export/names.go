package export

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"mcsave/config"
	"mcsave/content"
)

const (
	maxNameLength = 50
	defaultName   = "asset"
)

// SanitizeName makes asset name usable as file name: characters reserved
// on common file systems are replaced, result is trimmed and limited to 50
// characters.
func SanitizeName(name string) string {
	name = norm.NFC.String(name)
	name = strings.Map(func(r rune) rune {
		if r < ' ' || strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:maxNameLength]))
	}
	return name
}

// Values is what is available for name template expansion.
type Values struct {
	Context     string
	ID          int64
	Name        string
	CustomerKey string
	Stack       string
	Date        string
}

// Namer hands out file names for assets of a single bundle. Names are unique
// within bundle (case insensitive).
type Namer struct {
	template      string
	transliterate bool
	stack         string
	now           time.Time
	used          map[string]bool
	log           *zap.Logger
}

func NewNamer(cfg *config.ExportConfig, stack string, now time.Time, log *zap.Logger) *Namer {
	return &Namer{
		template:      cfg.NameTemplate,
		transliterate: cfg.FileNameTransliterate,
		stack:         stack,
		now:           now,
		used:          make(map[string]bool),
		log:           log,
	}
}

// Name returns base name (no extension) for compiled asset.
func (n *Namer) Name(ca *content.CompiledAsset) string {
	name := ca.Name
	if len(n.template) > 0 {
		expanded, err := n.expand(ca)
		if err != nil {
			n.log.Warn("Unable to prepare output file name, using asset name", zap.Int64("id", ca.ID), zap.Error(err))
		} else if len(strings.TrimSpace(expanded)) > 0 {
			name = expanded
		}
	}

	if n.transliterate {
		name = slug.Make(name)
	}
	if name = SanitizeName(name); len(name) == 0 {
		name = fmt.Sprintf("%s-%d", defaultName, ca.ID)
	}
	return n.unique(config.CleanFileName(name))
}

func (n *Namer) expand(ca *content.CompiledAsset) (string, error) {
	tmpl, err := template.New(string(config.NameTemplateFieldName)).Funcs(sprig.FuncMap()).Parse(n.template)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", config.NameTemplateFieldName, err)
	}

	values := Values{
		Context:     string(config.NameTemplateFieldName),
		ID:          ca.ID,
		Name:        ca.Name,
		CustomerKey: ca.CustomerKey,
		Stack:       n.stack,
		Date:        n.now.Format(time.DateOnly),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Reserve marks name as taken, returns false when it already was.
func (n *Namer) Reserve(name string) bool {
	key := strings.ToLower(name)
	if n.used[key] {
		return false
	}
	n.used[key] = true
	return true
}

func (n *Namer) unique(name string) string {
	candidate := name
	for i := 1; !n.Reserve(candidate); i++ {
		candidate = fmt.Sprintf("%s-%d", name, i)
	}
	return candidate
}
