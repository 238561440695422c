// Package preview renders drawing thumbnails.
//
// Three output formats share one geometry: [RenderPNG] for raster
// thumbnails, [RenderSVG] for vector output and [RenderPDF] for print. All
// renderers lay cells out the same way:
//
//   - squares: a plain grid of pixelSize cells
//   - bricks: odd rows shift right by half a cell, widening the frame
//   - bricksVertical: odd columns shift down by half a cell, deepening it
//
// The frame is scaled down uniformly to fit within [DefaultMaxSize] (or the
// size given via [WithMaxSize]) and is never enlarged. Cell borders are drawn
// in light grey unless the scale drops to 0.3 or below, where they would
// swamp the picture.
//
// Documents are defaulted before rendering and rejected with
// INVALID_DRAWING when their canvas or pixel size exceeds the limits in
// package drawing.
package preview
