// Package handoff renders context-transfer documents for phase
// transitions from Markdown templates with {{field}} placeholders.
package handoff

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/harrison/switchboard/internal/models"
)

//go:embed templates/*.md
var builtinTemplates embed.FS

// ErrNoTemplate is returned when no template exists for a phase pair.
var ErrNoTemplate = errors.New("no handoff template")

var placeholderRegex = regexp.MustCompile(`\{\{\s*([a-z_]+)\s*\}\}`)

// missingMarker fills a placeholder whose field was not supplied.
const missingMarker = "[MISSING: %s]"

// Document is a rendered handoff plus its structural index.
type Document struct {
	From     models.Phase `json:"from"`
	To       models.Phase `json:"to"`
	Content  string       `json:"content"`
	Sections []string     `json:"sections"`
	Missing  []string     `json:"missing,omitempty"`
}

// Generator renders handoff documents. Templates in the overlay
// directory shadow the embedded defaults by filename.
type Generator struct {
	overlayDir string
	markdown   goldmark.Markdown
}

// NewGenerator builds a generator. overlayDir may be empty to use only
// the embedded templates.
func NewGenerator(overlayDir string) *Generator {
	return &Generator{
		overlayDir: overlayDir,
		markdown:   goldmark.New(),
	}
}

func templateName(from, to models.Phase) string {
	return fmt.Sprintf("%s-%s.md", from, to)
}

// load returns the template body for a phase pair, preferring the
// overlay directory over the embedded set.
func (g *Generator) load(from, to models.Phase) ([]byte, error) {
	name := templateName(from, to)

	if g.overlayDir != "" {
		data, err := os.ReadFile(filepath.Join(g.overlayDir, name))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read template override: %w", err)
		}
	}

	data, err := builtinTemplates.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoTemplate, from, to)
	}
	return data, nil
}

// Generate renders the handoff for a phase transition, filling
// placeholders from context. Unsupplied fields are marked in the
// output and listed in Missing.
func (g *Generator) Generate(from, to models.Phase, context map[string]string) (*Document, error) {
	raw, err := g.load(from, to)
	if err != nil {
		return nil, err
	}

	var missing []string
	seen := make(map[string]bool)
	content := placeholderRegex.ReplaceAllStringFunc(string(raw), func(match string) string {
		field := placeholderRegex.FindStringSubmatch(match)[1]
		if value, ok := context[field]; ok && strings.TrimSpace(value) != "" {
			return value
		}
		if !seen[field] {
			seen[field] = true
			missing = append(missing, field)
		}
		return fmt.Sprintf(missingMarker, field)
	})

	return &Document{
		From:     from,
		To:       to,
		Content:  content,
		Sections: g.indexSections([]byte(content)),
		Missing:  missing,
	}, nil
}

// Fields returns the placeholder names a phase pair's template expects.
func (g *Generator) Fields(from, to models.Phase) ([]string, error) {
	raw, err := g.load(from, to)
	if err != nil {
		return nil, err
	}

	var fields []string
	seen := make(map[string]bool)
	for _, match := range placeholderRegex.FindAllStringSubmatch(string(raw), -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			fields = append(fields, match[1])
		}
	}
	return fields, nil
}

// AvailableTemplates lists the phase pairs with a template, overlay
// and embedded combined, sorted by name.
func (g *Generator) AvailableTemplates() ([]string, error) {
	names := make(map[string]bool)

	entries, err := builtinTemplates.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}
	for _, entry := range entries {
		names[strings.TrimSuffix(entry.Name(), ".md")] = true
	}

	if g.overlayDir != "" {
		overlay, err := os.ReadDir(g.overlayDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read template overlay dir: %w", err)
		}
		for _, entry := range overlay {
			if strings.HasSuffix(entry.Name(), ".md") {
				names[strings.TrimSuffix(entry.Name(), ".md")] = true
			}
		}
	}

	var list []string
	for name := range names {
		list = append(list, name)
	}
	sort.Strings(list)
	return list, nil
}

// indexSections walks the rendered Markdown AST and collects the
// level 2 heading titles in document order.
func (g *Generator) indexSections(content []byte) []string {
	doc := g.markdown.Parser().Parse(text.NewReader(content))

	var sections []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok && heading.Level == 2 {
			sections = append(sections, headingText(heading, content))
		}
		return ast.WalkContinue, nil
	})
	return sections
}

func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}
