package newsletter

import "errors"

// Error kinds reported by the pipeline. Everything except
// ErrSyntaxUnavailable and ErrRender is handled where it happens and only
// logged.
var (
	ErrModuleContract = errors.New("block module does not provide a decorator")
	ErrModuleLoad     = errors.New("unable to load block module")
	ErrFetch          = errors.New("unable to fetch stylesheet")
	ErrParse          = errors.New("malformed stylesheet")
	ErrDecoration     = errors.New("block decoration failed")

	// Fatal, no document can be produced.
	ErrSyntaxUnavailable = errors.New("css syntax service unavailable")
	ErrRender            = errors.New("unable to render document")
)
