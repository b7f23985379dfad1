package export

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// markdown renders compiled HTML as readable text version of the email.
// Layout tables are common in emails, so table plugin is always on.
type markdown struct {
	conv *converter.Converter
}

func newMarkdown() *markdown {
	return &markdown{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (m *markdown) Render(html string) (string, error) {
	if len(strings.TrimSpace(html)) == 0 {
		return "", nil
	}
	out, err := m.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("unable to convert to markdown: %w", err)
	}
	return strings.TrimSpace(out) + "\n", nil
}
