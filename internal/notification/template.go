package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const DefaultTemplateCacheSize = 100

var layout = template.Must(template.New("mail").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; color: #222;">
{{.}}
</body>
</html>
`))

// TemplateCache turns markdown mail bodies into full HTML documents and
// memoizes the result by the xxhash of the source. When it grows past max
// entries the oldest inserted one is dropped, regardless of use.
type TemplateCache struct {
	md  goldmark.Markdown
	max int

	mu      sync.Mutex
	entries map[uint64]string
	order   []uint64
}

func NewTemplateCache(max int) *TemplateCache {
	if max <= 0 {
		max = DefaultTemplateCacheSize
	}
	return &TemplateCache{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Linkify),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		max:     max,
		entries: make(map[uint64]string),
	}
}

func (c *TemplateCache) Render(source string) (string, error) {
	key := xxhash.Sum64String(source)

	c.mu.Lock()
	if html, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return html, nil
	}
	c.mu.Unlock()

	var body bytes.Buffer
	if err := c.md.Convert([]byte(source), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	var out bytes.Buffer
	// goldmark drops raw HTML from the source, so its output is safe to embed.
	if err := layout.Execute(&out, template.HTML(body.String())); err != nil {
		return "", fmt.Errorf("render layout: %w", err)
	}
	html := out.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = html
		c.order = append(c.order, key)
		if len(c.entries) > c.max {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	return html, nil
}

func (c *TemplateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TemplateCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]string)
	c.order = nil
}

func (c *TemplateCache) has(source string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[xxhash.Sum64String(source)]
	return ok
}
