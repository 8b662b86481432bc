package newsletter

import (
	"fmt"
	"strings"

	"github.com/speedata/css/scanner"
)

// tokenstream is a list of CSS tokens
type tokenstream []*scanner.Token

func tokenizeSelector(sel string) (tokenstream, error) {
	var toks tokenstream
	s := scanner.New(sel)
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.EOF:
			return toks, nil
		case scanner.Error:
			return nil, fmt.Errorf("%w: selector %q: %s", ErrParse, sel, tok.Value)
		case scanner.Comment:
			// ignore
		default:
			toks = append(toks, tok)
		}
	}
}

// selectorElements splits a single selector into its simple parts. Both
// combinators and compound boundaries separate elements, so
// "body.tpl > mj-text:hover" yields "body", ".tpl", "mj-text", ":hover".
func selectorElements(sel string) ([]string, error) {
	toks, err := tokenizeSelector(sel)
	if err != nil {
		return nil, err
	}

	var (
		elements []string
		cur      strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			elements = append(elements, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Type {
		case scanner.S:
			flush()
		case scanner.Ident:
			flush()
			cur.WriteString(t.Value)
		case scanner.Hash:
			flush()
			cur.WriteString("#" + t.Value)
		case scanner.Delim:
			switch t.Value {
			case ">", "+", "~", ",":
				flush()
			case ".":
				if i+1 >= len(toks) || toks[i+1].Type != scanner.Ident {
					return nil, fmt.Errorf("%w: selector %q: dangling '.'", ErrParse, sel)
				}
				flush()
				cur.WriteString("." + toks[i+1].Value)
				i++
			case ":":
				flush()
				cur.WriteString(":")
				if i+1 < len(toks) && toks[i+1].Type == scanner.Delim && toks[i+1].Value == ":" {
					cur.WriteString(":")
					i++
				}
				if i+1 >= len(toks) {
					return nil, fmt.Errorf("%w: selector %q: dangling ':'", ErrParse, sel)
				}
				switch next := toks[i+1]; next.Type {
				case scanner.Ident:
					cur.WriteString(next.Value)
					i++
				case scanner.Function:
					cur.WriteString(functionName(next.Value) + "(")
					j, err := collectUntil(toks, i+2, ")", &cur)
					if err != nil {
						return nil, fmt.Errorf("%w: selector %q: %w", ErrParse, sel, err)
					}
					i = j
				default:
					return nil, fmt.Errorf("%w: selector %q: dangling ':'", ErrParse, sel)
				}
			case "(":
				// arguments of a functional pseudo class, ":not(.x)"
				cur.WriteString("(")
				j, err := collectUntil(toks, i+1, ")", &cur)
				if err != nil {
					return nil, fmt.Errorf("%w: selector %q: %w", ErrParse, sel, err)
				}
				i = j
			case "[":
				flush()
				cur.WriteString("[")
				j, err := collectUntil(toks, i+1, "]", &cur)
				if err != nil {
					return nil, fmt.Errorf("%w: selector %q: %w", ErrParse, sel, err)
				}
				i = j
			default:
				// "*", "&" and friends
				flush()
				cur.WriteString(t.Value)
			}
		default:
			return nil, fmt.Errorf("%w: selector %q: unexpected %v", ErrParse, sel, t.Type)
		}
	}
	flush()
	return elements, nil
}

// collectUntil copies tokens starting at i into sb up to and including the
// closing delimiter and returns the index of the delimiter.
func collectUntil(toks tokenstream, i int, closing string, sb *strings.Builder) (int, error) {
	for ; i < len(toks); i++ {
		t := toks[i]
		switch t.Type {
		case scanner.Delim:
			sb.WriteString(t.Value)
			if t.Value == closing {
				return i, nil
			}
			if t.Value == "(" {
				j, err := collectUntil(toks, i+1, ")", sb)
				if err != nil {
					return i, err
				}
				i = j
			}
		case scanner.String:
			sb.WriteString(quote(t.Value))
		case scanner.Hash:
			sb.WriteString("#" + t.Value)
		case scanner.Function:
			sb.WriteString(functionName(t.Value) + "(")
			j, err := collectUntil(toks, i+1, ")", sb)
			if err != nil {
				return i, err
			}
			i = j
		default:
			sb.WriteString(t.Value)
		}
	}
	return i, fmt.Errorf("missing '%s'", closing)
}

func functionName(v string) string {
	return strings.TrimSuffix(v, "(")
}

func quote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v
	}
	return `"` + v + `"`
}
