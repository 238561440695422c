// Package codec converts drawing documents to and from the compact form, a
// six-field pipe-delimited string small enough to embed in a URL.
//
// # Format
//
//	compact   = pattern "|" pixelSize "|" width "|" height "|" colors "|" grid
//	pattern   = "s" / "b" / 1CHAR        ; s=squares, b=bricks, else=bricksVertical
//	colors    = [ color *("," color) ]
//	grid      = [ entry *(";" entry) ]
//	entry     = row "," col ":" color
//
// For example:
//
//	s|15|20|20|#000000,#ff0000|0,0:#000000;1,1:#ff0000
//
// # Leniency
//
// [Unmarshal] only fails when the input has fewer than six fields. Every
// other malformation degrades: dimensions that do not parse (or parse to
// zero) fall back to 15, 20 and 20, unknown pattern tags decode as
// bricksVertical, and broken grid entries are dropped. Share links get
// truncated and mangled in transit, and a partially recovered drawing is
// more useful than an error.
//
// # Lossy white
//
// [Marshal] omits grid entries whose color is "#ffffff" or "#fff", so they
// decode as unpainted. The palette decodes positionally: only value order
// survives.
//
// # Concurrency
//
// Both functions are pure and safe for concurrent use.
package codec
