package newsletter

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// DefaultBodyWidth is the mj-body width in pixels.
const DefaultBodyWidth = 800

// DefaultGlobalSheets are loaded for every document.
var DefaultGlobalSheets = Sheets{
	Styles:       []string{"/styles/email-styles.css"},
	InlineStyles: []string{"/styles/email-inline-styles.css"},
}

// Options configure a Converter. Zero values select the defaults.
type Options struct {
	// Base is the code base stylesheets are fetched from: a directory or an
	// http(s) URL. ProcessHTMLFile falls back to the directory of the page.
	Base string
	// Fetcher replaces the fetcher derived from Base.
	Fetcher Fetcher
	// Modules provides the block implementations.
	Modules ModuleLoader
	// Syntax parses and prints stylesheets, the CSS syntax service when nil.
	Syntax Syntax
	// Renderer turns the MJML document into the final output, the document
	// is returned as is when nil.
	Renderer Renderer

	GlobalSheets *Sheets
	Classes      ContentClasses
	ContentBase  *url.URL
	LastSection  LastSectionPolicy
	BodyWidth    int
}

// Converter turns decorated pages into MJML or rendered HTML.
type Converter struct {
	opts     Options
	resolver *BlockResolver
	log      *zap.Logger
}

// NewConverter returns a converter for opts.
func NewConverter(opts Options, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Syntax == nil {
		opts.Syntax = NewCSSSyntax(log)
	}
	if opts.Renderer == nil {
		opts.Renderer = MarkupRenderer{}
	}
	if opts.Modules == nil {
		opts.Modules = Modules{}
	}
	if opts.GlobalSheets == nil {
		opts.GlobalSheets = &DefaultGlobalSheets
	}
	if opts.BodyWidth <= 0 {
		opts.BodyWidth = DefaultBodyWidth
	}
	return &Converter{
		opts:     opts,
		resolver: NewBlockResolver(opts.Modules, log),
		log:      log.Named("converter"),
	}
}

// ProcessHTMLFile reads a page from an HTML file and converts it. Without a
// configured code base stylesheets are looked up relative to the file.
func (c *Converter) ProcessHTMLFile(ctx context.Context, filename string) (string, error) {
	r, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer r.Close()
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("unable to read %s: %w", filename, err)
	}
	fetcher := c.opts.Fetcher
	if fetcher == nil && c.opts.Base == "" {
		fetcher = NewDirFetcher(filepath.Dir(filename))
	}
	return c.convert(ctx, doc, fetcher)
}

// ProcessHTMLChunk reads a page from HTML text and converts it.
func (c *Converter) ProcessHTMLChunk(ctx context.Context, htmltext string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmltext))
	if err != nil {
		return "", err
	}
	return c.Convert(ctx, doc)
}

// Convert converts a parsed page and hands the result to the renderer.
func (c *Converter) Convert(ctx context.Context, doc *goquery.Document) (string, error) {
	return c.convert(ctx, doc, c.opts.Fetcher)
}

func (c *Converter) convert(ctx context.Context, doc *goquery.Document, fetcher Fetcher) (string, error) {
	log := c.documentLogger()
	mjml, err := c.toMJML(ctx, doc, fetcher, log)
	if err != nil {
		return "", err
	}
	log.Debug("MJML document", zap.String("mjml", mjml))
	out, err := c.opts.Renderer.Render(ctx, mjml)
	if err != nil {
		return "", err
	}
	return out, nil
}

// ToMJML assembles the MJML document of a parsed page without rendering it.
func (c *Converter) ToMJML(ctx context.Context, doc *goquery.Document) (string, error) {
	return c.toMJML(ctx, doc, c.opts.Fetcher, c.documentLogger())
}

// documentLogger tags the messages of one conversion.
func (c *Converter) documentLogger() *zap.Logger {
	return c.log.With(zap.String("document", uuid.NewString()))
}

func (c *Converter) toMJML(ctx context.Context, doc *goquery.Document, fetcher Fetcher, log *zap.Logger) (string, error) {
	if fetcher == nil {
		fetcher = NewFetcher(c.opts.Base)
	}
	body := doc.Find("body").First()

	var host *html.Node
	if body.Length() > 0 {
		host = body.Get(0)
	}
	extractor := NewExtractor(c.opts.Syntax, host, log)
	loader := NewStylesheetLoader(fetcher, extractor, log)
	assembler := NewAssembler(c.resolver, loader, AssemblerOptions{
		GlobalSheets: *c.opts.GlobalSheets,
		Classes:      c.opts.Classes,
		ContentBase:  c.opts.ContentBase,
		LastSection:  c.opts.LastSection,
	}, log)

	f, err := assembler.Assemble(ctx, doc)
	if err != nil {
		return "", err
	}
	class, _ := body.Attr("class")
	return Template(f.Head, f.Body, strings.Fields(class), c.opts.BodyWidth), nil
}

// Template wraps head and body markup into an MJML document. bodyClasses
// end up in the css-class attribute of mj-body.
func Template(head, body string, bodyClasses []string, width int) string {
	var sb strings.Builder
	sb.WriteString("<mjml>\n<mj-head>\n")
	sb.WriteString(head)
	sb.WriteString("</mj-head>\n")
	fmt.Fprintf(&sb, `<mj-body width="%d" css-class="%s">`, width, html.EscapeString(strings.Join(bodyClasses, " ")))
	sb.WriteString("\n")
	sb.WriteString(body)
	sb.WriteString("\n</mj-body>\n</mjml>\n")
	return sb.String()
}
