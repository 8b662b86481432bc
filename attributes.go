package newsletter

import (
	"fmt"
	"iter"

	"github.com/beevik/etree"
)

// Semantic target wildcards.
const (
	WildcardTag   = "mj-all"
	WildcardClass = "*"
)

// Declarations is an ordered property to value mapping. Setting an existing
// property replaces its value but keeps its position.
type Declarations struct {
	names  []string
	values map[string]string
}

// NewDeclarations returns an empty Declarations.
func NewDeclarations() *Declarations {
	return &Declarations{values: make(map[string]string)}
}

// Set stores value for the property name.
func (d *Declarations) Set(name, value string) {
	if _, ok := d.values[name]; !ok {
		d.names = append(d.names, name)
	}
	d.values[name] = value
}

// Get returns the value of the property name.
func (d *Declarations) Get(name string) (string, bool) {
	v, ok := d.values[name]
	return v, ok
}

// Len returns the number of properties.
func (d *Declarations) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// All iterates over the properties in insertion order.
func (d *Declarations) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, name := range d.names {
			if !yield(name, d.values[name]) {
				return
			}
		}
	}
}

type tagEntry struct {
	classes []string
	decls   map[string]*Declarations
}

// AttributeMap holds the declarations extracted from a single stylesheet,
// keyed by MJML tag and class. Tags and classes keep their insertion order.
type AttributeMap struct {
	tags    []string
	entries map[string]*tagEntry
}

// NewAttributeMap returns an empty AttributeMap.
func NewAttributeMap() *AttributeMap {
	return &AttributeMap{entries: make(map[string]*tagEntry)}
}

// Merge adds decls to the (tag, class) entry, later values win per property.
func (m *AttributeMap) Merge(tag, class string, decls *Declarations) {
	if class == "" {
		class = WildcardClass
	}
	e, ok := m.entries[tag]
	if !ok {
		e = &tagEntry{decls: make(map[string]*Declarations)}
		m.entries[tag] = e
		m.tags = append(m.tags, tag)
	}
	d, ok := e.decls[class]
	if !ok {
		d = NewDeclarations()
		e.decls[class] = d
		e.classes = append(e.classes, class)
	}
	for name, value := range decls.All() {
		d.Set(name, value)
	}
}

// Lookup returns the declarations of the (tag, class) entry.
func (m *AttributeMap) Lookup(tag, class string) (*Declarations, bool) {
	e, ok := m.entries[tag]
	if !ok {
		return nil, false
	}
	d, ok := e.decls[class]
	return d, ok
}

// Len returns the number of tags.
func (m *AttributeMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.tags)
}

// Tags returns the tags in insertion order.
func (m *AttributeMap) Tags() []string {
	return append([]string(nil), m.tags...)
}

// Classes returns the classes of tag in insertion order.
func (m *AttributeMap) Classes(tag string) []string {
	if e, ok := m.entries[tag]; ok {
		return append([]string(nil), e.classes...)
	}
	return nil
}

// FormatAttributes renders the map as an mj-attributes block. Wildcard class
// entries become attributes of the tag itself, named classes become
// mj-class declarations. An empty map renders as an empty string.
func FormatAttributes(m *AttributeMap) (string, error) {
	if m.Len() == 0 {
		return "", nil
	}
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalAttrVal = true
	root := doc.CreateElement("mj-attributes")
	for _, tag := range m.tags {
		e := m.entries[tag]
		for _, class := range e.classes {
			var el *etree.Element
			if class == WildcardClass {
				el = root.CreateElement(tag)
			} else {
				el = root.CreateElement("mj-class")
				el.CreateAttr("name", class)
			}
			for name, value := range e.decls[class].All() {
				el.CreateAttr(name, value)
			}
		}
	}
	doc.Indent(2)
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("unable to format attributes: %w", err)
	}
	return s, nil
}
