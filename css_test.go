package newsletter

import (
	"strings"
	"testing"
)

func TestParseRuleset(t *testing.T) {
	sheet, err := NewCSSSyntax(nil).Parse(`a,b:is(c,d) { color: red; margin: 0 auto; }`)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := sheet.Len(), 1; got != want {
		t.Fatalf("sheet.Len() = %d, want %d", got, want)
	}
	b := sheet.blocks[0]
	if got, want := strings.Join(b.selectors, "|"), "a|b:is(c,d)"; got != want {
		t.Errorf("selectors = %q, want %q", got, want)
	}
	if got, want := len(b.rules), 2; got != want {
		t.Fatalf("len(rules) = %d, want %d", got, want)
	}
	if got, want := b.rules[0].key, "color"; got != want {
		t.Errorf("rules[0].key = %q, want %q", got, want)
	}
	if got, want := declarationValue(b.rules[1].value), "0 auto"; got != want {
		t.Errorf("rules[1] value = %q, want %q", got, want)
	}
}

func TestParseDropsComments(t *testing.T) {
	c := NewCSSSyntax(nil)
	sheet, err := c.Parse("/* header */\np { color: red; }\n/* footer */")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := sheet.Len(), 1; got != want {
		t.Errorf("sheet.Len() = %d, want %d", got, want)
	}
	if out := c.Print(sheet); strings.Contains(out, "/*") {
		t.Errorf("Print() kept a comment: %q", out)
	}
}

func TestParseAtRules(t *testing.T) {
	str := `
	@import url("fonts.css");
	@media screen and (max-width: 480px) {
		.intro { color: red; }
		p { margin: 0; }
	}
	@font-face {
		font-family: "Trickster";
		src: url("trickster.woff") format("woff");
	}`
	c := NewCSSSyntax(nil)
	sheet, err := c.Parse(str)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := sheet.Len(), 3; got != want {
		t.Fatalf("sheet.Len() = %d, want %d", got, want)
	}
	if got, want := sheet.blocks[0].name, "import"; got != want {
		t.Errorf("blocks[0].name = %q, want %q", got, want)
	}
	media := sheet.blocks[1]
	if got, want := len(media.blocks), 2; got != want {
		t.Errorf("len(media.blocks) = %d, want %d", got, want)
	}
	if got, want := len(sheet.blocks[2].rules), 2; got != want {
		t.Errorf("len(font-face rules) = %d, want %d", got, want)
	}

	out := c.Print(sheet)
	for _, want := range []string{"@import", "@media", "max-width", ".intro {", "font-family:", "@font-face {"} {
		if !strings.Contains(out, want) {
			t.Errorf("Print() misses %q in %q", want, out)
		}
	}
}

func TestPrintIsStable(t *testing.T) {
	c := NewCSSSyntax(nil)
	sheet, err := c.Parse("h1 , h2 { color : red ; }  @media print { h1 { display: none } }")
	if err != nil {
		t.Fatal(err)
	}
	first := c.Print(sheet)
	again, err := c.Parse(first)
	if err != nil {
		t.Fatal(err)
	}
	if second := c.Print(again); first != second {
		t.Errorf("Print(Parse(Print())) = %q, want %q", second, first)
	}
}

func TestPrintEmpty(t *testing.T) {
	c := NewCSSSyntax(nil)
	if got := c.Print(&Stylesheet{}); got != "" {
		t.Errorf("Print(empty) = %q, want empty", got)
	}
	if got := c.Print(nil); got != "" {
		t.Errorf("Print(nil) = %q, want empty", got)
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct{ in, want string }{
		{`'red'`, "red"},
		{`"red"`, "red"},
		{`red`, "red"},
		{`'red"`, `'red"`},
		{`''`, ""},
		{`'`, `'`},
	}
	for _, tt := range tests {
		if got := unquote(tt.in); got != tt.want {
			t.Errorf("unquote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSBlockString(t *testing.T) {
	b := &sBlock{
		selectors: []string{"h1", "h2"},
		rules:     []qrule{{key: "color", value: nil}},
	}
	if got, want := b.String(), "h1,\nh2 {\n  color: ;\n}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	at := &sBlock{name: "charset", prelude: `"utf-8"`}
	if got, want := at.String(), `@charset "utf-8";`; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
