package newsletter

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sheets lists stylesheet paths by delivery mode. Inline styles are inlined
// into the markup by the renderer, regular styles end up in the document
// head.
type Sheets struct {
	Styles       []string
	InlineStyles []string
}

// Len returns the total number of stylesheets.
func (s Sheets) Len() int {
	return len(s.Styles) + len(s.InlineStyles)
}

// StylesheetLoader fetches stylesheets and turns them into head markup.
type StylesheetLoader struct {
	fetcher Fetcher
	extract *Extractor
	log     *zap.Logger
}

// NewStylesheetLoader returns a loader fetching through f.
func NewStylesheetLoader(f Fetcher, x *Extractor, log *zap.Logger) *StylesheetLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &StylesheetLoader{fetcher: f, extract: x, log: log.Named("stylesheets")}
}

type sheetRequest struct {
	path   string
	inline bool
}

// Load loads regular styles followed by inline styles. See LoadPaths.
func (l *StylesheetLoader) Load(ctx context.Context, sheets Sheets) (string, error) {
	reqs := make([]sheetRequest, 0, sheets.Len())
	for _, p := range sheets.Styles {
		reqs = append(reqs, sheetRequest{path: p})
	}
	for _, p := range sheets.InlineStyles {
		reqs = append(reqs, sheetRequest{path: p, inline: true})
	}
	return l.load(ctx, reqs)
}

// LoadPaths fetches all paths concurrently and joins the resulting markup
// in the order of paths. A stylesheet which cannot be fetched contributes
// nothing, the only error returned is a fatal one.
func (l *StylesheetLoader) LoadPaths(ctx context.Context, paths []string, inline bool) (string, error) {
	reqs := make([]sheetRequest, 0, len(paths))
	for _, p := range paths {
		reqs = append(reqs, sheetRequest{path: p, inline: inline})
	}
	return l.load(ctx, reqs)
}

func (l *StylesheetLoader) load(ctx context.Context, reqs []sheetRequest) (string, error) {
	results := make([]string, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() (err error) {
			results[i], err = l.loadOne(gctx, req.path, req.inline)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(results, ""), nil
}

func (l *StylesheetLoader) loadOne(ctx context.Context, path string, inline bool) (string, error) {
	data, err := l.fetcher.Fetch(ctx, path)
	if err != nil {
		l.log.Warn("Failed to load stylesheet", zap.String("path", path), zap.Error(err))
		return "", nil
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", nil
	}

	attrs, residual, err := l.extract.Extract(text)
	if err != nil {
		if errors.Is(err, ErrSyntaxUnavailable) {
			return "", err
		}
		l.log.Warn("Failed to parse stylesheet", zap.String("path", path), zap.Error(err))
		return "", nil
	}

	var sb strings.Builder
	block, err := FormatAttributes(attrs)
	if err != nil {
		l.log.Warn("Failed to format attributes", zap.String("path", path), zap.Error(err))
	}
	sb.WriteString(block)
	if residual = strings.TrimSpace(residual); residual != "" {
		sb.WriteString(styleBlock(residual, inline))
	}
	l.log.Debug("Loaded stylesheet", zap.String("path", path), zap.Bool("inline", inline),
		zap.Int("tags", attrs.Len()), zap.Int("residual", len(residual)))
	return sb.String(), nil
}

func styleBlock(css string, inline bool) string {
	open := "<mj-style>"
	if inline {
		open = `<mj-style inline="inline">`
	}
	return open + "\n" + css + "\n</mj-style>\n"
}
