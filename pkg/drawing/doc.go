// Package drawing defines the pixel-art drawing document shared by the codec,
// transport, storage and rendering packages.
//
// # Document
//
// A [Document] holds a tiling [Pattern], the pixel size of one cell, the canvas
// dimensions in cells, an ordered color palette and a sparse grid. The grid
// maps "row,col" keys (see [CellKey]) to hex colors. A missing key means the
// cell is unpainted and renders white.
//
// # White cells
//
// The literal spellings "#ffffff" and "#fff" are treated as white by
// [IsWhite]. White entries are never written to the compact form, so painting
// a cell white and reloading it is the same as never painting it.
// [Document.Set] follows the same rule and deletes the key.
//
// # JSON
//
// Documents marshal to the JSON shape used by the browser application, where
// the palette is an object keyed by stringified index:
//
//	{"pattern":"squares","pixelSize":15,"canvasWidth":20,"canvasHeight":20,
//	 "colors":{"0":"#000000"},"grid":{"0,0":"#000000"}}
//
// Unmarshalling accepts the palette either in that form or as a plain array.
//
// # Validation
//
// [Document.Validate] enforces bounds on the persistence path. Decoding never
// validates; it substitutes defaults via [Document.ApplyDefaults] instead.
package drawing
