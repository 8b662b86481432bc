package newsletter

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Block element attributes.
const (
	AttrBlockStatus = "data-block-status"
	AttrBlockName   = "data-block-name"
)

// Block resolution states kept in AttrBlockStatus. No attribute means the
// block was never resolved.
const (
	StatusLoading = "loading"
	StatusLoaded  = "loaded"
)

// DecorateFunc turns a block element into MJML body markup.
type DecorateFunc func(ctx context.Context, block *goquery.Selection) (string, error)

// Module is a block implementation. Style paths are relative to the block
// directory (/blocks/<name>/). A module declaring no stylesheets gets the
// inline stylesheet <name>.css.
type Module struct {
	Decorate     DecorateFunc
	Styles       []string
	InlineStyles []string
}

// ModuleLoader finds the module for a block name.
type ModuleLoader interface {
	Load(ctx context.Context, name string) (*Module, error)
}

// Modules is a ModuleLoader backed by a map.
type Modules map[string]*Module

// Load implements ModuleLoader.
func (m Modules) Load(_ context.Context, name string) (*Module, error) {
	mod, ok := m[name]
	if !ok || mod == nil {
		return nil, fmt.Errorf("%w: %q", ErrModuleLoad, name)
	}
	return mod, nil
}

// Decorator is a resolved block: its name, the stylesheets it needs and its
// transform.
type Decorator struct {
	Name   string
	Sheets Sheets

	decorate DecorateFunc
	log      *zap.Logger
}

// Decorate runs the block transform. Failures, panics included, are logged
// and produce no markup.
func (d *Decorator) Decorate(ctx context.Context, block *goquery.Selection) (markup string) {
	if d == nil || d.decorate == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Block decoration failed", zap.String("block", d.Name),
				zap.Error(fmt.Errorf("%w: %v", ErrDecoration, r)))
			markup = ""
		}
	}()
	out, err := d.decorate(ctx, block)
	if err != nil {
		d.log.Error("Block decoration failed", zap.String("block", d.Name),
			zap.Error(fmt.Errorf("%w: %w", ErrDecoration, err)))
		return ""
	}
	return out
}

// BlockResolver maps block elements to decorators.
type BlockResolver struct {
	modules ModuleLoader
	log     *zap.Logger

	mu sync.Mutex // guards the status attribute of block elements
}

// NewBlockResolver returns a resolver loading modules through modules.
func NewBlockResolver(modules ModuleLoader, log *zap.Logger) *BlockResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &BlockResolver{modules: modules, log: log.Named("blocks")}
}

// Resolve returns the decorator for block. A block which is being resolved
// already gets a decorator doing nothing. Once Resolve returns the block is
// marked as loaded, whether the module could be found or not.
func (r *BlockResolver) Resolve(ctx context.Context, block *goquery.Selection) (*Decorator, error) {
	name := BlockName(block)

	r.mu.Lock()
	status, _ := block.Attr(AttrBlockStatus)
	if status == StatusLoading {
		r.mu.Unlock()
		r.log.Warn("Block is resolved already", zap.String("block", name))
		return &Decorator{Name: name, log: r.log}, nil
	}
	block.SetAttr(AttrBlockStatus, StatusLoading)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		block.SetAttr(AttrBlockStatus, StatusLoaded)
		r.mu.Unlock()
	}()

	if name == "" {
		return nil, fmt.Errorf("%w: block has no name", ErrModuleLoad)
	}
	mod, err := r.modules.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if mod.Decorate == nil {
		return nil, fmt.Errorf("%w: %q", ErrModuleContract, name)
	}

	d := &Decorator{Name: name, decorate: mod.Decorate, log: r.log}
	if len(mod.Styles) == 0 && len(mod.InlineStyles) == 0 {
		d.Sheets.InlineStyles = []string{blockPath(name, name+".css")}
		return d, nil
	}
	for _, s := range mod.Styles {
		d.Sheets.Styles = append(d.Sheets.Styles, blockPath(name, s))
	}
	for _, s := range mod.InlineStyles {
		d.Sheets.InlineStyles = append(d.Sheets.InlineStyles, blockPath(name, s))
	}
	return d, nil
}

// BlockName returns the normalized name of a block element: the
// data-block-name attribute or else its first class other than "block".
func BlockName(block *goquery.Selection) string {
	if name, ok := block.Attr(AttrBlockName); ok && strings.TrimSpace(name) != "" {
		return slug.Make(name)
	}
	class, _ := block.Attr("class")
	for _, c := range strings.Fields(class) {
		if c != "block" {
			return slug.Make(c)
		}
	}
	return ""
}

func blockPath(name, sheet string) string {
	return path.Join("/blocks", name, sheet)
}
