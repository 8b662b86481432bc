// Package blocks contains the block modules shipped with the converter.
//
// Blocks follow the usual table structure of a decorated page: the block
// element holds one div per row, each row one div per cell.
package blocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/multierr"

	newsletter "github.com/nicolasbarbe/cpss-newsletter"
)

// Default returns all shipped modules keyed by block name.
func Default() newsletter.Modules {
	return newsletter.Modules{
		"hero":    Hero(),
		"columns": Columns(),
		"footer":  Footer(),
	}
}

// Hero renders every cell as a full width column. It declares no
// stylesheets and gets the inline stylesheet hero.css.
func Hero() *newsletter.Module {
	return &newsletter.Module{
		Decorate: func(_ context.Context, block *goquery.Selection) (string, error) {
			classes := contentClasses("hero")
			var (
				sb   strings.Builder
				errs error
			)
			rows(block).Each(func(_ int, row *goquery.Selection) {
				cells(row).Each(func(_ int, cell *goquery.Selection) {
					content, err := newsletter.FoldContent(cell, classes, nil)
					errs = multierr.Append(errs, err)
					sb.WriteString(`<mj-section mj-class="mj-hero-section"><mj-column mj-class="mj-hero-column">`)
					sb.WriteString(content)
					sb.WriteString(`</mj-column></mj-section>`)
				})
			})
			return sb.String(), errs
		},
	}
}

// Columns renders each row as a section with one column per cell.
func Columns() *newsletter.Module {
	return &newsletter.Module{
		Decorate: func(_ context.Context, block *goquery.Selection) (string, error) {
			classes := contentClasses("columns")
			var (
				sb   strings.Builder
				errs error
			)
			rows(block).Each(func(_ int, row *goquery.Selection) {
				c := cells(row)
				if c.Length() == 0 {
					return
				}
				fmt.Fprintf(&sb, `<mj-section mj-class="mj-columns-section mj-columns-%d">`, c.Length())
				c.Each(func(_ int, cell *goquery.Selection) {
					content, err := newsletter.FoldContent(cell, classes, nil)
					errs = multierr.Append(errs, err)
					sb.WriteString(`<mj-column mj-class="mj-columns-column">`)
					sb.WriteString(content)
					sb.WriteString(`</mj-column>`)
				})
				sb.WriteString(`</mj-section>`)
			})
			if sb.Len() == 0 {
				return "", fmt.Errorf("columns block without content")
			}
			return sb.String(), errs
		},
		InlineStyles: []string{"columns.css"},
	}
}

// Footer collects all cells into one column.
func Footer() *newsletter.Module {
	return &newsletter.Module{
		Decorate: func(_ context.Context, block *goquery.Selection) (string, error) {
			classes := contentClasses("footer")
			var (
				sb   strings.Builder
				errs error
			)
			sb.WriteString(`<mj-section mj-class="mj-footer-section"><mj-column mj-class="mj-footer-column">`)
			rows(block).Each(func(_ int, row *goquery.Selection) {
				cells(row).Each(func(_ int, cell *goquery.Selection) {
					content, err := newsletter.FoldContent(cell, classes, nil)
					errs = multierr.Append(errs, err)
					sb.WriteString(content)
				})
			})
			sb.WriteString(`</mj-column></mj-section>`)
			return sb.String(), errs
		},
		Styles:       []string{"footer.css"},
		InlineStyles: []string{"footer-inline.css"},
	}
}

func contentClasses(name string) newsletter.ContentClasses {
	return newsletter.ContentClasses{
		Text:   "mj-" + name + "-text",
		Image:  "mj-" + name + "-image",
		Button: "mj-" + name + "-button",
	}
}

func rows(block *goquery.Selection) *goquery.Selection {
	return block.ChildrenFiltered("div")
}

func cells(row *goquery.Selection) *goquery.Selection {
	return row.ChildrenFiltered("div")
}
