package drawing

import (
	"encoding/json"
	"maps"
	"slices"
	"sort"
	"strconv"
)

// Pattern is the tiling mode that determines how grid cells are offset
// when rendered.
type Pattern string

// Supported patterns.
const (
	PatternSquares        Pattern = "squares"
	PatternBricks         Pattern = "bricks"
	PatternBricksVertical Pattern = "bricksVertical"
)

// Patterns lists all supported patterns in display order.
var Patterns = []Pattern{PatternSquares, PatternBricks, PatternBricksVertical}

// Default values substituted for missing or unparsable fields.
const (
	DefaultPattern      = PatternSquares
	DefaultPixelSize    = 15
	DefaultCanvasWidth  = 20
	DefaultCanvasHeight = 20
)

// White is the color an unpainted cell renders as.
const White = "#ffffff"

// Tag returns the single-character tag used in the compact form.
// Anything that is not squares or bricks is tagged as bricksVertical.
func (p Pattern) Tag() string {
	switch p {
	case PatternSquares:
		return "s"
	case PatternBricks:
		return "b"
	default:
		return "v"
	}
}

// Valid reports whether p is one of the supported patterns.
func (p Pattern) Valid() bool {
	return slices.Contains(Patterns, p)
}

// PatternFromTag maps a compact-form tag back to a pattern.
// Unrecognized tags alias to bricksVertical rather than failing.
func PatternFromTag(tag string) Pattern {
	switch tag {
	case "s":
		return PatternSquares
	case "b":
		return PatternBricks
	default:
		return PatternBricksVertical
	}
}

// IsWhite reports whether color is one of the literal white spellings.
// The match is exact and case-sensitive: "#FFFFFF" is not white here.
func IsWhite(color string) bool {
	return color == "#ffffff" || color == "#fff"
}

// Document is the canonical in-memory representation of a drawing.
//
// Grid is sparse: only painted cells appear, keyed by [CellKey]. Colors is the
// user's saved palette in display order; uniqueness is not enforced.
type Document struct {
	Pattern      Pattern           `json:"pattern"`
	PixelSize    int               `json:"pixelSize"`
	CanvasWidth  int               `json:"canvasWidth"`
	CanvasHeight int               `json:"canvasHeight"`
	Colors       []string          `json:"colors"`
	Grid         map[string]string `json:"grid"`
}

// New returns an empty document with default settings.
func New() *Document {
	return &Document{
		Pattern:      DefaultPattern,
		PixelSize:    DefaultPixelSize,
		CanvasWidth:  DefaultCanvasWidth,
		CanvasHeight: DefaultCanvasHeight,
		Colors:       []string{},
		Grid:         map[string]string{},
	}
}

// ApplyDefaults replaces a missing pattern and non-positive dimensions with
// the package defaults, and allocates nil collections.
func (d *Document) ApplyDefaults() {
	if d.Pattern == "" {
		d.Pattern = DefaultPattern
	}
	if d.PixelSize <= 0 {
		d.PixelSize = DefaultPixelSize
	}
	if d.CanvasWidth <= 0 {
		d.CanvasWidth = DefaultCanvasWidth
	}
	if d.CanvasHeight <= 0 {
		d.CanvasHeight = DefaultCanvasHeight
	}
	if d.Colors == nil {
		d.Colors = []string{}
	}
	if d.Grid == nil {
		d.Grid = map[string]string{}
	}
}

// Get returns the color of the cell at (row, col), or [White] when the cell
// is unpainted.
func (d *Document) Get(row, col int) string {
	if c, ok := d.Grid[CellKey(row, col)]; ok && c != "" {
		return c
	}
	return White
}

// Set paints the cell at (row, col). Painting a cell white removes it from
// the grid, matching how the compact form treats white.
func (d *Document) Set(row, col int, color string) {
	key := CellKey(row, col)
	if color == "" || IsWhite(color) {
		delete(d.Grid, key)
		return
	}
	if d.Grid == nil {
		d.Grid = map[string]string{}
	}
	d.Grid[key] = color
}

// PaintedCells returns the number of grid entries that carry a non-white color.
func (d *Document) PaintedCells() int {
	n := 0
	for _, c := range d.Grid {
		if c != "" && !IsWhite(c) {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := *d
	out.Colors = slices.Clone(d.Colors)
	out.Grid = maps.Clone(d.Grid)
	if out.Colors == nil {
		out.Colors = []string{}
	}
	if out.Grid == nil {
		out.Grid = map[string]string{}
	}
	return &out
}

// Equal reports whether d and o describe the same drawing.
// Nil and empty collections compare equal.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Pattern == o.Pattern &&
		d.PixelSize == o.PixelSize &&
		d.CanvasWidth == o.CanvasWidth &&
		d.CanvasHeight == o.CanvasHeight &&
		slices.Equal(d.Colors, o.Colors) &&
		maps.Equal(d.Grid, o.Grid)
}

// documentJSON is the wire shape used by the surrounding application, where
// the palette is an object keyed by stringified index.
type documentJSON struct {
	Pattern      Pattern           `json:"pattern"`
	PixelSize    int               `json:"pixelSize"`
	CanvasWidth  int               `json:"canvasWidth"`
	CanvasHeight int               `json:"canvasHeight"`
	Colors       json.RawMessage   `json:"colors"`
	Grid         map[string]string `json:"grid"`
}

// MarshalJSON encodes the palette as {"0": c0, "1": c1, ...}.
func (d Document) MarshalJSON() ([]byte, error) {
	colors := make(map[string]string, len(d.Colors))
	for i, c := range d.Colors {
		colors[strconv.Itoa(i)] = c
	}
	rawColors, err := json.Marshal(colors)
	if err != nil {
		return nil, err
	}
	grid := d.Grid
	if grid == nil {
		grid = map[string]string{}
	}
	return json.Marshal(documentJSON{
		Pattern:      d.Pattern,
		PixelSize:    d.PixelSize,
		CanvasWidth:  d.CanvasWidth,
		CanvasHeight: d.CanvasHeight,
		Colors:       rawColors,
		Grid:         grid,
	})
}

// UnmarshalJSON accepts the palette either as an array or as an object keyed
// by index. Object values are ordered by numeric key; non-numeric keys follow
// in lexical order.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw documentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	colors, err := decodePalette(raw.Colors)
	if err != nil {
		return err
	}
	*d = Document{
		Pattern:      raw.Pattern,
		PixelSize:    raw.PixelSize,
		CanvasWidth:  raw.CanvasWidth,
		CanvasHeight: raw.CanvasHeight,
		Colors:       colors,
		Grid:         raw.Grid,
	}
	return nil
}

func decodePalette(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	keys := slices.Collect(maps.Keys(obj))
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(keys[i])
		b, bErr := strconv.Atoi(keys[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = obj[k]
	}
	return out, nil
}
