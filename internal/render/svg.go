// Package render draws game states as SVG board diagrams.
package render

import (
	"fmt"
	"io"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"chess_architect/internal/game"
)

type options struct {
	squareSize  int
	light, dark string
	perspective game.Color
	marks       []game.Position
	coordinates bool
}

// Option customizes a diagram.
type Option func(*options)

// SquareSize sets the edge of one square in pixels.
func SquareSize(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.squareSize = px
		}
	}
}

// SquareColors sets the fill of light and dark squares.
func SquareColors(light, dark string) Option {
	return func(o *options) { o.light, o.dark = light, dark }
}

// Perspective puts color's back rank at the bottom.
func Perspective(c game.Color) Option {
	return func(o *options) { o.perspective = c }
}

// MarkSquares outlines the given squares, e.g. legal destinations.
func MarkSquares(ps ...game.Position) Option {
	return func(o *options) { o.marks = append(o.marks, ps...) }
}

// Coordinates toggles file and rank labels.
func Coordinates(on bool) Option {
	return func(o *options) { o.coordinates = on }
}

var glyphs = [2][6]string{
	{"♙", "♘", "♗", "♖", "♕", "♔"},
	{"♟", "♞", "♝", "♜", "♛", "♚"},
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// SVG writes a diagram of state: pieces, the last move, frozen pieces,
// plants, markers and armed ordnance.
func SVG(w io.Writer, state game.GameState, opts ...Option) error {
	o := options{squareSize: 60, light: "#f0d9b5", dark: "#b58863", coordinates: true}
	for _, opt := range opts {
		opt(&o)
	}
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	size := o.squareSize
	canvas.Start(8*size, 8*size)
	canvas.Title(fmt.Sprintf("%s to move, %s", state.CurrentPlayer, state.Status))

	xy := func(p game.Position) (int, int) {
		row, col := p.Row, p.Col
		if o.perspective == game.Black {
			row, col = 7-row, 7-col
		}
		return col * size, row * size
	}

	var from, to *game.Position
	if n := len(state.History); n > 0 {
		last := state.History[n-1]
		from, to = &last.From, &last.To
	}

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := game.Position{Row: row, Col: col}
			x, y := xy(p)
			fill := o.light
			if (row+col)%2 == 1 {
				fill = o.dark
			}
			canvas.Rect(x, y, size, size, "fill:"+fill)
			if (from != nil && *from == p) || (to != nil && *to == p) {
				canvas.Rect(x, y, size, size, "fill:#cdd26a;fill-opacity:0.6")
			}
		}
	}

	for _, p := range o.marks {
		x, y := xy(p)
		canvas.Circle(x+size/2, y+size/2, size/6, "fill:#000;fill-opacity:0.2")
	}

	for _, m := range state.Markers {
		x, y := xy(m.Position)
		canvas.Circle(x+size/2, y+size/2, size*2/5, "fill:none;stroke:#6a5acd;stroke-width:2;stroke-dasharray:4,3")
	}

	frozen := make(map[game.Position]bool, len(state.Freezes))
	for _, f := range state.Freezes {
		if f.Remaining > 0 {
			frozen[f.Position] = true
		}
	}

	for _, pc := range state.Board.AllPieces() {
		x, y := xy(pc.Position)
		if pc.IsPlant() {
			canvas.Circle(x+size/2, y+size/2, size*9/20, "fill:#4caf50;fill-opacity:0.45")
		}
		if frozen[pc.Position] {
			canvas.Rect(x+2, y+2, size-4, size-4, "fill:#9fd3ff;fill-opacity:0.5;stroke:#2b7bb9;stroke-width:2")
		}
		glyph := glyphs[pc.Color.Index()][pc.Type]
		if pc.Hidden {
			glyph = "?"
		}
		canvas.Text(x+size/2, y+size*3/4, glyph,
			"text-anchor:middle;font-size:"+strconv.Itoa(size*3/4)+"px;font-family:serif")
	}

	for _, ord := range state.Ordnance {
		x, y := xy(ord.Position)
		canvas.Gstyle("stroke:#c62828;stroke-width:2")
		canvas.Circle(x+size/2, y+size/2, size/4, "fill:#ffcdd2;fill-opacity:0.7")
		if ord.Radius > 0 {
			span := (2*ord.Radius + 1) * size
			canvas.Rect(x-ord.Radius*size, y-ord.Radius*size, span, span, "fill:none;stroke-dasharray:6,4")
		}
		canvas.Gend()
		label := "!"
		if ord.Trigger == game.DetonateOnCountdown {
			label = strconv.Itoa(ord.Remaining)
		}
		canvas.Text(x+size/2, y+size/2+size/12, label, "text-anchor:middle;font-size:"+strconv.Itoa(size/4)+"px;fill:#b71c1c")
	}

	if o.coordinates {
		for i := 0; i < 8; i++ {
			file, rank := 'a'+rune(i), 8-i
			if o.perspective == game.Black {
				file, rank = 'h'-rune(i), i+1
			}
			canvas.Text(i*size+size-4, 8*size-4, string(file), "text-anchor:end;font-size:10px;fill:#333")
			canvas.Text(3, i*size+12, strconv.Itoa(rank), "font-size:10px;fill:#333")
		}
	}

	canvas.End()
	return ew.err
}
