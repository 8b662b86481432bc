package newsletter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/multierr"
	"golang.org/x/net/html"
)

// ContentClasses are the mj-class names given to folded default content.
type ContentClasses struct {
	Text   string
	Image  string
	Button string
}

// DefaultContentClasses are used for default content wrappers.
var DefaultContentClasses = ContentClasses{
	Text:   "mj-content-text",
	Image:  "mj-content-image",
	Button: "mj-content-button",
}

const textClose = "</mj-text>"

// contentFold is the accumulator of FoldContent. text is the open mj-text
// element, if any.
type contentFold struct {
	out  strings.Builder
	text *strings.Builder
}

func (f *contentFold) emit(markup string) {
	f.closeText()
	f.out.WriteString(markup)
}

func (f *contentFold) appendText(class, markup string) {
	if f.text == nil {
		f.text = &strings.Builder{}
		fmt.Fprintf(f.text, `<mj-text mj-class="%s">`, html.EscapeString(class))
	}
	f.text.WriteString(markup)
}

func (f *contentFold) closeText() {
	if f.text == nil {
		return
	}
	f.out.WriteString(f.text.String())
	f.out.WriteString(textClose)
	f.text = nil
}

func (f *contentFold) String() string {
	f.closeText()
	return f.out.String()
}

// FoldContent turns the children of a default content wrapper into MJML:
// children holding an image become mj-image, button containers become
// mj-button and everything else is collected into mj-text elements, with
// consecutive text children sharing one mj-text. Relative image and link
// targets are resolved against base when it is not nil. Children which
// cannot be rendered are left out and reported in the returned error, the
// markup of the others is returned regardless.
func FoldContent(wrapper *goquery.Selection, classes ContentClasses, base *url.URL) (string, error) {
	var (
		f    contentFold
		errs error
	)
	wrapper.Children().Each(func(_ int, child *goquery.Selection) {
		if img := child.Find("img").AddBackFiltered("img").First(); img.Length() > 0 {
			src, _ := img.Attr("src")
			f.emit(fmt.Sprintf(`<mj-image mj-class="%s" src="%s" />`,
				html.EscapeString(classes.Image), html.EscapeString(resolveURL(base, src))))
			return
		}
		if child.HasClass("button-container") {
			link := child.ChildrenFiltered("a").First()
			href, _ := link.Attr("href")
			f.emit(fmt.Sprintf(`<mj-button mj-class="%s" href="%s">%s</mj-button>`,
				html.EscapeString(classes.Button), html.EscapeString(resolveURL(base, href)),
				html.EscapeString(strings.TrimSpace(link.Text()))))
			return
		}
		markup, err := goquery.OuterHtml(child)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unable to render content: %w", err))
			return
		}
		f.appendText(classes.Text, markup)
	})
	return f.String(), errs
}

func resolveURL(base *url.URL, ref string) string {
	if base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
