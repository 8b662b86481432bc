// Package newsletter combines a decorated page (sections, wrappers and
// blocks) and its stylesheets into an MJML document.
//
// Stylesheet rules aimed at MJML elements (mj-text, mj-all.foo, .mj-foo and
// so on) are extracted into an mj-attributes block, the rest of the CSS is
// kept in mj-style blocks. Blocks are resolved to Go modules which produce
// their own markup and declare their own stylesheets. The resulting markup
// can be handed to a renderer such as the mjml command line tool.
package newsletter
