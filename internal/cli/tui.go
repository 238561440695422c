package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/pixelshare/pkg/drawing"
)

// cellWidth is the number of terminal columns one cell occupies. Two columns
// make a cell roughly square in most fonts and let brick rows shift by half.
const cellWidth = 2

// viewerChrome is the number of terminal lines used by the header and footer.
const viewerChrome = 4

var viewerDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// ViewerModel - Interactive drawing viewer
// =============================================================================

// ViewerModel is the bubbletea model that shows a drawing in the terminal
// and pans across canvases larger than the window.
type ViewerModel struct {
	Doc    *drawing.Document
	Title  string
	RowOff int
	ColOff int
	Width  int
	Height int

	palette *cellPalette
}

// NewViewerModel creates a viewer for d.
func NewViewerModel(d *drawing.Document, title string) ViewerModel {
	return ViewerModel{
		Doc:     d,
		Title:   title,
		Width:   80,
		Height:  24,
		palette: newCellPalette(),
	}
}

func (m ViewerModel) Init() tea.Cmd {
	return nil
}

func (m ViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.RowOff--
		case "down", "j":
			m.RowOff++
		case "left", "h":
			m.ColOff--
		case "right", "l":
			m.ColOff++
		case "pgup":
			m.RowOff -= m.visibleRows()
		case "pgdown":
			m.RowOff += m.visibleRows()
		case "home", "g":
			m.RowOff, m.ColOff = 0, 0
		}
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
	}
	m.clamp()
	return m, nil
}

func (m ViewerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("  ")
	b.WriteString(viewerDimStyle.Render(drawingSummary(m.Doc)))
	b.WriteString("\n\n")

	b.WriteString(m.palette.render(m.Doc, m.RowOff, m.ColOff, m.visibleRows(), m.visibleCols()))
	b.WriteString("\n")

	rows, cols := m.visibleRows(), m.visibleCols()
	status := fmt.Sprintf("rows %d-%d/%d  cols %d-%d/%d",
		m.RowOff+1, min(m.RowOff+rows, m.Doc.CanvasHeight), m.Doc.CanvasHeight,
		m.ColOff+1, min(m.ColOff+cols, m.Doc.CanvasWidth), m.Doc.CanvasWidth)
	b.WriteString(viewerDimStyle.Render(status + "   ↑↓←→ pan  g home  q quit"))

	return b.String()
}

func (m ViewerModel) visibleRows() int {
	return max(m.Height-viewerChrome, 1)
}

func (m ViewerModel) visibleCols() int {
	// One spare column for the half-cell brick offset.
	return max((m.Width-1)/cellWidth, 1)
}

func (m *ViewerModel) clamp() {
	m.RowOff = min(m.RowOff, m.Doc.CanvasHeight-m.visibleRows())
	m.ColOff = min(m.ColOff, m.Doc.CanvasWidth-m.visibleCols())
	m.RowOff = max(m.RowOff, 0)
	m.ColOff = max(m.ColOff, 0)
}

// =============================================================================
// Cell rendering
// =============================================================================

// cellPalette caches one lipgloss style per distinct cell color.
type cellPalette struct {
	styles map[string]lipgloss.Style
}

func newCellPalette() *cellPalette {
	return &cellPalette{styles: make(map[string]lipgloss.Style)}
}

// style returns the background style for a cell color. Colors that do not
// parse render white, as in previews.
func (p *cellPalette) style(hex string) lipgloss.Style {
	if s, ok := p.styles[hex]; ok {
		return s
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		c = colorful.Color{R: 1, G: 1, B: 1}
	}
	s := lipgloss.NewStyle().Background(lipgloss.Color(c.Hex()))
	p.styles[hex] = s
	return s
}

// render draws the window of rows x cols cells starting at (rowOff, colOff).
// Odd brick rows are indented by half a cell. Vertical bricks cannot shift by
// half a terminal line and are drawn on the square grid.
func (p *cellPalette) render(d *drawing.Document, rowOff, colOff, rows, cols int) string {
	blank := strings.Repeat(" ", cellWidth)
	lastRow := min(rowOff+rows, d.CanvasHeight)
	lastCol := min(colOff+cols, d.CanvasWidth)

	var b strings.Builder
	for row := rowOff; row < lastRow; row++ {
		if d.Pattern == drawing.PatternBricks && row%2 == 1 {
			b.WriteString(" ")
		}
		for col := colOff; col < lastCol; col++ {
			b.WriteString(p.style(d.Get(row, col)).Render(blank))
		}
		if row < lastRow-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderDrawing draws the whole canvas without the interactive frame.
func renderDrawing(d *drawing.Document) string {
	return newCellPalette().render(d, 0, 0, d.CanvasHeight, d.CanvasWidth)
}
