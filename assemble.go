package newsletter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fragment is a piece of MJML body markup with the head markup it needs.
type Fragment struct {
	Body string
	Head string
}

// JoinFragments concatenates fragments in order.
func JoinFragments(frags []Fragment) Fragment {
	var body, head strings.Builder
	for _, f := range frags {
		body.WriteString(f.Body)
		head.WriteString(f.Head)
	}
	return Fragment{Body: body.String(), Head: head.String()}
}

// LastSectionPolicy decides which sections are marked as last.
type LastSectionPolicy string

const (
	// TrailingFooter marks the last and the second to last section, the
	// last one being the page footer.
	TrailingFooter LastSectionPolicy = "trailing-footer"
	// StrictLast marks the last section only.
	StrictLast LastSectionPolicy = "strict"
)

// IsLast reports whether section i of n is marked as last.
func (p LastSectionPolicy) IsLast(i, n int) bool {
	if p == StrictLast {
		return i == n-1
	}
	return i >= n-2
}

// Section and wrapper classes.
const (
	ClassSection        = "section"
	ClassDefaultContent = "default-content-wrapper"
	ClassBlock          = "block"
)

const sectionDivider = `<mj-divider mj-class="mj-section-divider" border-width="1px" border-color="rgb(210,210,210)" width="30%" />`

// AssemblerOptions configure an Assembler.
type AssemblerOptions struct {
	// GlobalSheets are loaded once per document, their head markup comes
	// first.
	GlobalSheets Sheets
	Classes      ContentClasses
	// ContentBase resolves relative image and link targets of default
	// content, may be nil.
	ContentBase *url.URL
	LastSection LastSectionPolicy
}

// Assembler walks a decorated page and builds the MJML body and head.
type Assembler struct {
	resolver *BlockResolver
	sheets   *StylesheetLoader
	opts     AssemblerOptions
	log      *zap.Logger
}

// NewAssembler returns an assembler.
func NewAssembler(resolver *BlockResolver, sheets *StylesheetLoader, opts AssemblerOptions, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.LastSection == "" {
		opts.LastSection = TrailingFooter
	}
	if opts.Classes == (ContentClasses{}) {
		opts.Classes = DefaultContentClasses
	}
	return &Assembler{resolver: resolver, sheets: sheets, opts: opts, log: log.Named("assembler")}
}

// Assemble processes all sections of doc concurrently. The result keeps the
// document order. Failing blocks are logged and left out, only fatal errors
// are returned.
func (a *Assembler) Assemble(ctx context.Context, doc *goquery.Document) (Fragment, error) {
	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	sections := root.ChildrenFiltered("." + ClassSection)
	n := sections.Length()

	var (
		globalHead string
		results    = make([]Fragment, n)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		globalHead, err = a.sheets.Load(gctx, a.opts.GlobalSheets)
		return err
	})
	sections.Each(func(i int, section *goquery.Selection) {
		g.Go(func() (err error) {
			results[i], err = a.assembleSection(gctx, section, i, n)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return Fragment{}, err
	}

	f := JoinFragments(results)
	f.Head = globalHead + f.Head
	a.log.Debug("Assembled document", zap.Int("sections", n), zap.Int("body", len(f.Body)), zap.Int("head", len(f.Head)))
	return f, nil
}

func (a *Assembler) assembleSection(ctx context.Context, section *goquery.Selection, i, n int) (Fragment, error) {
	classes := sectionClasses(section)
	wrappers := section.Children()
	results := make([]Fragment, wrappers.Length())

	g, gctx := errgroup.WithContext(ctx)
	wrappers.Each(func(j int, wrapper *goquery.Selection) {
		g.Go(func() (err error) {
			results[j], err = a.assembleWrapper(gctx, wrapper, i == 0, classes)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return Fragment{}, err
	}

	f := JoinFragments(results)
	mjClass := []string{"mj-content-wrapper"}
	if i == 0 {
		mjClass = append(mjClass, "mj-first")
	}
	if a.opts.LastSection.IsLast(i, n) {
		mjClass = append(mjClass, "mj-last")
	}
	f.Body = fmt.Sprintf(`<mj-wrapper mj-class="%s">%s</mj-wrapper>`, strings.Join(mjClass, " "), f.Body)
	return f, nil
}

func (a *Assembler) assembleWrapper(ctx context.Context, wrapper *goquery.Selection, first bool, sectionClasses []string) (Fragment, error) {
	if wrapper.HasClass(ClassDefaultContent) {
		return Fragment{Body: a.defaultContent(wrapper, first, sectionClasses)}, nil
	}
	if block := wrapper.Find("." + ClassBlock).First(); block.Length() > 0 {
		return a.assembleBlock(ctx, block)
	}
	return Fragment{}, nil
}

func (a *Assembler) defaultContent(wrapper *goquery.Selection, first bool, sectionClasses []string) string {
	mjClass := make([]string, 0, len(sectionClasses)+2)
	if first {
		mjClass = append(mjClass, "mj-first")
	}
	mjClass = append(mjClass, "mj-content-section")
	mjClass = append(mjClass, sectionClasses...)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<mj-section mj-class="%s">`, strings.Join(mjClass, " "))
	sb.WriteString(`<mj-column mj-class="mj-content-column">`)
	content, err := FoldContent(wrapper, a.opts.Classes, a.opts.ContentBase)
	if err != nil {
		a.log.Warn("Default content is incomplete", zap.Error(err))
	}
	sb.WriteString(content)
	sb.WriteString(`</mj-column></mj-section>`)
	sb.WriteString(sectionDivider)
	return sb.String()
}

func (a *Assembler) assembleBlock(ctx context.Context, block *goquery.Selection) (Fragment, error) {
	d, err := a.resolver.Resolve(ctx, block)
	if err != nil {
		a.log.Error("Unable to resolve block", zap.String("block", BlockName(block)), zap.Error(err))
		return Fragment{}, nil
	}

	var f Fragment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f.Body = d.Decorate(gctx, block)
		return nil
	})
	g.Go(func() (err error) {
		f.Head, err = a.sheets.Load(gctx, d.Sheets)
		return err
	})
	if err := g.Wait(); err != nil {
		return Fragment{}, err
	}
	return f, nil
}

// sectionClasses maps the classes of a section element to mj-classes.
func sectionClasses(section *goquery.Selection) []string {
	class, _ := section.Attr("class")
	fields := strings.Fields(class)
	ret := make([]string, 0, len(fields))
	for _, c := range fields {
		ret = append(ret, "mj-"+c)
	}
	return ret
}
