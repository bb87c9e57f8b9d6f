// Package markdown renders post bodies to HTML, both as a templ.Component and
// as template.HTML for html/template views.
package markdown

import (
	"bytes"
	"context"
	"html"
	"html/template"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
		parser.WithASTTransformers(util.Prioritized(linkTransformer{}, 100)),
	),
	goldmark.WithRendererOptions(
		renderer.WithNodeRenderers(util.Prioritized(codeBlockRenderer{}, 100)),
	),
)

// Markdown returns a templ.Component that renders content as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderMarkdown(&buf, content)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// HTML renders content for use inside html/template.
func HTML(content string) template.HTML {
	var buf bytes.Buffer
	RenderMarkdown(&buf, content)
	return template.HTML(buf.String())
}

// RenderMarkdown writes the HTML representation of src to buf. Raw HTML in
// the source is dropped.
func RenderMarkdown(buf *bytes.Buffer, src string) {
	if err := md.Convert([]byte(src), buf); err != nil {
		buf.Reset()
		buf.WriteString("<p>" + html.EscapeString(src) + "</p>")
	}
}

// Heading is an entry of a post's table of contents.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// TOC lists the level 2 and 3 headings of src with their generated anchors.
func TOC(src string) []Heading {
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))
	var out []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		if h.Level < 2 || h.Level > 3 {
			return ast.WalkSkipChildren, nil
		}
		id, _ := h.AttributeString("id")
		idb, _ := id.([]byte)
		out = append(out, Heading{Level: h.Level, ID: string(idb), Text: plainText(h, source)})
		return ast.WalkSkipChildren, nil
	})
	return out
}

func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// linkTransformer opens external links in a new tab and lazy-loads images.
type linkTransformer struct{}

func (linkTransformer) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			dest, ok := safeDestination(string(v.Destination))
			if !ok {
				v.Destination = []byte("#")
				return ast.WalkContinue, nil
			}
			if isExternal(dest) {
				v.SetAttributeString("target", []byte("_blank"))
				v.SetAttributeString("rel", []byte("noopener noreferrer"))
			}
		case *ast.Image:
			if _, ok := safeDestination(string(v.Destination)); !ok {
				v.Destination = []byte("")
			}
			v.SetAttributeString("loading", []byte("lazy"))
		}
		return ast.WalkContinue, nil
	})
}

var reLang = regexp.MustCompile(`^[a-zA-Z0-9+#_-]+$`)

// codeBlockRenderer wraps fenced code blocks that name a language with a
// language badge.
type codeBlockRenderer struct{}

func (r codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	lang := strings.ToLower(string(n.Language(source)))
	if !reLang.MatchString(lang) {
		lang = ""
	}
	if lang != "" {
		_, _ = w.WriteString(`<div class="code-block-wrapper"><span class="code-lang code-lang-` + lang + `">` + lang + "</span>")
		_, _ = w.WriteString(`<pre><code class="language-` + lang + `">`)
	} else {
		_, _ = w.WriteString("<pre><code>")
	}
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(line.Value(source)))
	}
	_, _ = w.WriteString("</code></pre>")
	if lang != "" {
		_, _ = w.WriteString("</div>")
	}
	_ = w.WriteByte('\n')
	return ast.WalkContinue, nil
}

func safeDestination(raw string) (string, bool) {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return "", false
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val, true
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return "", false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return val, true
	}
	return "", false
}

func isExternal(dest string) bool {
	return strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://")
}

// SafeURL validates and escapes a URL for use in HTML attributes. Relative
// paths, fragments and http, https, mailto and tel URLs are allowed; anything
// else yields "".
func SafeURL(raw string) string {
	val, ok := safeDestination(raw)
	if !ok {
		return ""
	}
	return html.EscapeString(val)
}
