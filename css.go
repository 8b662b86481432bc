package newsletter

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Syntax parses stylesheet text into a Stylesheet and prints it back.
type Syntax interface {
	Parse(text string) (*Stylesheet, error)
	Print(sheet *Stylesheet) string
}

// qrule is a single declaration (key-value pair) of a block.
type qrule struct {
	key   string
	value []css.Token
}

// sBlock is one stylesheet item: a rule-set or an at-rule.
type sBlock struct {
	name      string    // only set if this is an at-rule, without the "@"
	prelude   string    // at-rule condition, e.g. "screen and (max-width: 480px)"
	selectors []string  // rule-set selectors, one entry per comma separated selector
	rules     []qrule   // the key-value pairs
	blocks    []*sBlock // the at-rule's rule-sets, if any
	raw       string    // verbatim content of an at-rule we do not understand
	hasBody   bool      // at-rule followed by a {} block
}

func (b *sBlock) isRuleset() bool {
	return b.name == "" && len(b.selectors) > 0
}

// Stylesheet is a parsed stylesheet, items are kept in source order.
type Stylesheet struct {
	blocks []*sBlock
}

// Len returns the number of top level items.
func (s *Stylesheet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.blocks)
}

// CSSSyntax is the Syntax implementation used by default.
type CSSSyntax struct {
	log *zap.Logger
}

// NewCSSSyntax returns a new CSS syntax service.
func NewCSSSyntax(log *zap.Logger) *CSSSyntax {
	if log == nil {
		log = zap.NewNop()
	}
	return &CSSSyntax{log: log.Named("css-syntax")}
}

// Parse reads CSS text. Comments are dropped, malformed declarations are
// skipped and logged, everything else is kept.
func (c *CSSSyntax) Parse(text string) (*Stylesheet, error) {
	sheet := &Stylesheet{}
	p := css.NewParser(parse.NewInputString(text), false)

	var (
		stack   []*sBlock // open at-rules
		current *sBlock   // open rule-set
	)
	add := func(b *sBlock) {
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.blocks = append(top.blocks, b)
			return
		}
		sheet.blocks = append(sheet.blocks, b)
	}

	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if p.HasParseError() {
				c.log.Debug("Skipping malformed css", zap.Error(fmt.Errorf("%w: %w", ErrParse, p.Err())))
				continue
			}
			if err := p.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %w", ErrParse, err)
			}
			return sheet, nil

		case css.CommentGrammar:
			// ignore

		case css.AtRuleGrammar:
			add(&sBlock{name: atRuleName(data), prelude: tokensString(p.Values())})

		case css.BeginAtRuleGrammar:
			b := &sBlock{name: atRuleName(data), prelude: tokensString(p.Values()), hasBody: true}
			add(b)
			stack = append(stack, b)

		case css.EndAtRuleGrammar:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case css.TokenGrammar:
			// content of unknown at-rules, CDO/CDC at the top level are dropped
			if len(stack) > 0 {
				stack[len(stack)-1].raw += string(data)
			}

		case css.BeginRulesetGrammar:
			current = &sBlock{selectors: splitSelectors(p.Values())}
			add(current)

		case css.EndRulesetGrammar:
			current = nil

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			q := qrule{key: string(data), value: append([]css.Token(nil), p.Values()...)}
			switch {
			case current != nil:
				current.rules = append(current.rules, q)
			case len(stack) > 0:
				// @font-face, @page
				top := stack[len(stack)-1]
				top.rules = append(top.rules, q)
			}
		}
	}
}

// Print returns the CSS text of the stylesheet.
func (c *CSSSyntax) Print(sheet *Stylesheet) string {
	if sheet == nil {
		return ""
	}
	return sheet.String()
}

func atRuleName(data []byte) string {
	return strings.TrimPrefix(string(data), "@")
}

// splitSelectors splits the selector tokens of a rule-set on top level commas.
func splitSelectors(toks []css.Token) []string {
	var (
		ret   []string
		sb    strings.Builder
		level int
	)
	flush := func() {
		if s := strings.TrimSpace(sb.String()); s != "" {
			ret = append(ret, s)
		}
		sb.Reset()
	}
	for _, t := range toks {
		switch t.TokenType {
		case css.LeftParenthesisToken, css.LeftBracketToken, css.FunctionToken:
			level++
		case css.RightParenthesisToken, css.RightBracketToken:
			level--
		case css.CommaToken:
			if level == 0 {
				flush()
				continue
			}
		}
		sb.Write(t.Data)
	}
	flush()
	return ret
}

func tokensString(toks []css.Token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// declarationValue returns the value of a declaration as used in markup
// attributes: a single quoted string loses one layer of quotes.
func declarationValue(toks []css.Token) string {
	if len(toks) == 1 && toks[0].TokenType == css.StringToken {
		return unquote(string(toks[0].Data))
	}
	return tokensString(toks)
}

// unquote removes one layer of surrounding quotes from a string.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
