package newsletter

import (
	"strings"
)

func indent(s string) string {
	ret := []string{}
	for _, line := range strings.Split(s, "\n") {
		ret = append(ret, "  "+line)
	}
	return strings.Join(ret, "\n")
}

func (b *sBlock) String() string {
	ret := []string{}
	var firstline string
	if b.name != "" {
		firstline = "@" + b.name
		if b.prelude != "" {
			firstline += " " + b.prelude
		}
		if !b.hasBody {
			return firstline + ";"
		}
	} else {
		firstline = strings.Join(b.selectors, ",\n")
	}
	if b.raw != "" && len(b.rules) == 0 && len(b.blocks) == 0 {
		return firstline + " {\n" + indent(strings.TrimSpace(b.raw)) + "\n}"
	}
	ret = append(ret, firstline+" {")
	for _, v := range b.rules {
		ret = append(ret, "  "+v.key+": "+tokensString(v.value)+";")
	}
	for _, v := range b.blocks {
		ret = append(ret, indent(v.String()))
	}
	ret = append(ret, "}")
	return strings.Join(ret, "\n")
}

func (s *Stylesheet) String() string {
	ret := []string{}
	for _, b := range s.blocks {
		ret = append(ret, b.String())
	}
	if len(ret) == 0 {
		return ""
	}
	return strings.Join(ret, "\n") + "\n"
}
