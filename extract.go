package newsletter

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const markerPrefix = "mj-"

// Target is an MJML element/class a stylesheet rule resolves to.
type Target struct {
	Tag   string
	Class string
}

// Extractor pulls rules aimed at MJML elements out of a stylesheet.
type Extractor struct {
	syntax Syntax
	host   *html.Node
	log    *zap.Logger
}

// NewExtractor returns an extractor. host is the node selectors in front of
// an MJML marker are tested against (normally the page body), it may be nil.
func NewExtractor(syntax Syntax, host *html.Node, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{syntax: syntax, host: host, log: log.Named("extractor")}
}

// Extract parses cssText, removes every rule-set that has at least one
// selector resolving to an MJML target and returns the collected
// declarations together with the remaining CSS.
func (x *Extractor) Extract(cssText string) (*AttributeMap, string, error) {
	if x.syntax == nil {
		return nil, "", ErrSyntaxUnavailable
	}
	sheet, err := x.syntax.Parse(cssText)
	if err != nil {
		return nil, "", err
	}

	attrs := NewAttributeMap()
	residual := &Stylesheet{}
	for _, b := range sheet.blocks {
		if !b.isRuleset() {
			residual.blocks = append(residual.blocks, b)
			continue
		}
		targets := x.targets(b.selectors)
		if len(targets) == 0 {
			residual.blocks = append(residual.blocks, b)
			continue
		}
		decls := NewDeclarations()
		for _, r := range b.rules {
			decls.Set(r.key, declarationValue(r.value))
		}
		if decls.Len() == 0 {
			continue
		}
		for _, t := range targets {
			attrs.Merge(t.Tag, t.Class, decls)
		}
	}
	return attrs, x.syntax.Print(residual), nil
}

func (x *Extractor) targets(selectors []string) []Target {
	var ret []Target
	for _, sel := range selectors {
		elements, err := selectorElements(sel)
		if err != nil {
			x.log.Warn("Ignoring selector", zap.Error(err))
			continue
		}
		if t, ok := x.classify(sel, elements); ok {
			ret = append(ret, t)
		}
	}
	return ret
}

// classify maps selector elements to a target, see toTarget. When the first
// element is not usable but the second one is a marker and the first one
// matches the host, the selector is classified again starting from the
// second element.
func (x *Extractor) classify(sel string, elements []string) (Target, bool) {
	if len(elements) == 0 {
		return Target{}, false
	}
	first, second, rest := split(elements)
	if t, ok := x.toTarget(sel, first, second); ok {
		return t, true
	}
	if (isTagMarker(second) || isClassMarker(second)) && x.matchesHost(first) {
		third, _, _ := split(rest)
		return x.toTarget(sel, second, third)
	}
	return Target{}, false
}

func (x *Extractor) toTarget(sel, first, second string) (Target, bool) {
	switch {
	case isClassMarker(first):
		class := first[1:]
		if second != "" {
			x.log.Warn("Chaining mj-class selectors is not supported", zap.String("selector", sel))
			return Target{}, false
		}
		return Target{Tag: WildcardTag, Class: class}, true
	case isTagMarker(first):
		if strings.HasPrefix(second, ".") {
			if first != WildcardTag {
				x.log.Warn("Class names are supported for "+WildcardTag+" only", zap.String("selector", sel))
				return Target{}, false
			}
			return Target{Tag: first, Class: second[1:]}, true
		}
		return Target{Tag: first, Class: WildcardClass}, true
	}
	return Target{}, false
}

func (x *Extractor) matchesHost(element string) bool {
	if x.host == nil || element == "" {
		return false
	}
	m, err := cascadia.Compile(element)
	if err != nil {
		x.log.Debug("Unable to match selector against page", zap.Error(fmt.Errorf("%w: %w", ErrParse, err)))
		return false
	}
	return m.Match(x.host)
}

func split(elements []string) (first, second string, rest []string) {
	switch len(elements) {
	case 0:
		return "", "", nil
	case 1:
		return elements[0], "", nil
	}
	return elements[0], elements[1], elements[2:]
}

func isTagMarker(element string) bool {
	return strings.HasPrefix(element, markerPrefix)
}

func isClassMarker(element string) bool {
	return strings.HasPrefix(element, "."+markerPrefix)
}
