package newsletter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func blockSelection(t *testing.T, markup string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + markup + "</body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	sel := doc.Find(".block").First()
	if sel.Length() == 0 {
		t.Fatalf("no block in %q", markup)
	}
	return sel
}

func identity(_ context.Context, block *goquery.Selection) (string, error) {
	return goquery.OuterHtml(block)
}

func newTestResolver(modules Modules) (*BlockResolver, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewBlockResolver(modules, zap.New(core)), logs
}

func TestResolveDefaultSheet(t *testing.T) {
	r, _ := newTestResolver(Modules{"hero": {Decorate: identity}})
	block := blockSelection(t, `<div class="hero block"><div>Hi</div></div>`)

	d, err := r.Resolve(t.Context(), block)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := d.Name, "hero"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
	if got, want := strings.Join(d.Sheets.InlineStyles, ","), "/blocks/hero/hero.css"; got != want {
		t.Errorf("InlineStyles = %q, want %q", got, want)
	}
	if len(d.Sheets.Styles) != 0 {
		t.Errorf("Styles = %q, want none", d.Sheets.Styles)
	}
	if status, _ := block.Attr(AttrBlockStatus); status != StatusLoaded {
		t.Errorf("status = %q, want %q", status, StatusLoaded)
	}
	if got := d.Decorate(t.Context(), block); !strings.Contains(got, "Hi") {
		t.Errorf("Decorate() = %q", got)
	}
}

func TestResolveDeclaredSheets(t *testing.T) {
	r, _ := newTestResolver(Modules{"columns": {
		Decorate:     identity,
		Styles:       []string{"columns.css"},
		InlineStyles: []string{"columns-inline.css", "shared/print.css"},
	}})
	d, err := r.Resolve(t.Context(), blockSelection(t, `<div class="columns block"></div>`))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := strings.Join(d.Sheets.Styles, ","), "/blocks/columns/columns.css"; got != want {
		t.Errorf("Styles = %q, want %q", got, want)
	}
	if got, want := strings.Join(d.Sheets.InlineStyles, ","), "/blocks/columns/columns-inline.css,/blocks/columns/shared/print.css"; got != want {
		t.Errorf("InlineStyles = %q, want %q", got, want)
	}
}

func TestResolveMissingModule(t *testing.T) {
	r, _ := newTestResolver(Modules{})
	block := blockSelection(t, `<div class="nope block"></div>`)
	if _, err := r.Resolve(t.Context(), block); !errors.Is(err, ErrModuleLoad) {
		t.Errorf("Resolve() error = %v, want ErrModuleLoad", err)
	}
	if status, _ := block.Attr(AttrBlockStatus); status != StatusLoaded {
		t.Errorf("status = %q, want %q", status, StatusLoaded)
	}
}

func TestResolveContract(t *testing.T) {
	r, _ := newTestResolver(Modules{"broken": {Styles: []string{"broken.css"}}})
	if _, err := r.Resolve(t.Context(), blockSelection(t, `<div class="broken block"></div>`)); !errors.Is(err, ErrModuleContract) {
		t.Errorf("Resolve() error = %v, want ErrModuleContract", err)
	}
}

func TestResolveDuplicate(t *testing.T) {
	called := false
	r, logs := newTestResolver(Modules{"hero": {Decorate: func(context.Context, *goquery.Selection) (string, error) {
		called = true
		return "x", nil
	}}})
	block := blockSelection(t, `<div class="hero block" data-block-status="loading"></div>`)

	d, err := r.Resolve(t.Context(), block)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Decorate(t.Context(), block); got != "" || called {
		t.Errorf("Decorate() = %q, want no-op", got)
	}
	if d.Sheets.Len() != 0 {
		t.Errorf("no-op decorator declares %d sheets", d.Sheets.Len())
	}
	if logs.FilterMessage("Block is resolved already").Len() != 1 {
		t.Error("duplicate resolution was not logged")
	}
	if status, _ := block.Attr(AttrBlockStatus); status != StatusLoading {
		t.Errorf("status = %q, want it untouched", status)
	}
}

func TestDecoratorRecovers(t *testing.T) {
	r, logs := newTestResolver(Modules{
		"fails": {Decorate: func(context.Context, *goquery.Selection) (string, error) {
			return "partial", errors.New("boom")
		}},
		"panics": {Decorate: func(context.Context, *goquery.Selection) (string, error) {
			panic("boom")
		}},
	})
	for _, name := range []string{"fails", "panics"} {
		block := blockSelection(t, `<div class="`+name+` block"></div>`)
		d, err := r.Resolve(t.Context(), block)
		if err != nil {
			t.Fatal(err)
		}
		if got := d.Decorate(t.Context(), block); got != "" {
			t.Errorf("%s: Decorate() = %q, want empty", name, got)
		}
	}
	entries := logs.FilterMessage("Block decoration failed").All()
	if len(entries) != 2 {
		t.Fatalf("got %d decoration errors, want 2", len(entries))
	}
	for _, e := range entries {
		err, _ := e.ContextMap()["error"].(string)
		if !strings.Contains(err, ErrDecoration.Error()) {
			t.Errorf("logged error = %q, want ErrDecoration", err)
		}
	}
}

func TestBlockName(t *testing.T) {
	tests := []struct {
		markup, want string
	}{
		{`<div class="hero block"></div>`, "hero"},
		{`<div class="block columns"></div>`, "columns"},
		{`<div class="block x" data-block-name="Hero Banner"></div>`, "hero-banner"},
		{`<div class="block"></div>`, ""},
	}
	for _, tt := range tests {
		if got := BlockName(blockSelection(t, tt.markup)); got != tt.want {
			t.Errorf("BlockName(%s) = %q, want %q", tt.markup, got, tt.want)
		}
	}
}
