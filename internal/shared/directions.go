package shared

import (
	"strings"

	"golang.org/x/exp/constraints"
)

type Direction uint8

const (
	DirN Direction = iota
	DirNE
	DirE
	DirSE
	DirS
	DirSW
	DirW
	DirNW
	DirNone Direction = 255
)

var (
	OrthogonalDirections = []Direction{DirN, DirE, DirS, DirW}
	DiagonalDirections   = []Direction{DirNE, DirSE, DirSW, DirNW}
	AllDirections        = []Direction{DirN, DirNE, DirE, DirSE, DirS, DirSW, DirW, DirNW}
)

// Delta returns the row/column step. North points toward row 0.
func (d Direction) Delta() (int, int) {
	switch d {
	case DirN:
		return -1, 0
	case DirNE:
		return -1, 1
	case DirE:
		return 0, 1
	case DirSE:
		return 1, 1
	case DirS:
		return 1, 0
	case DirSW:
		return 1, -1
	case DirW:
		return 0, -1
	case DirNW:
		return -1, -1
	default:
		return 0, 0
	}
}

func (d Direction) Diagonal() bool {
	return d == DirNE || d == DirSE || d == DirSW || d == DirNW
}

func (d Direction) String() string {
	switch d {
	case DirN:
		return "N"
	case DirNE:
		return "NE"
	case DirE:
		return "E"
	case DirSE:
		return "SE"
	case DirS:
		return "S"
	case DirSW:
		return "SW"
	case DirW:
		return "W"
	case DirNW:
		return "NW"
	default:
		return "?"
	}
}

func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N":
		return DirN, true
	case "NE":
		return DirNE, true
	case "E":
		return DirE, true
	case "SE":
		return DirSE, true
	case "S":
		return DirS, true
	case "SW":
		return DirSW, true
	case "W":
		return DirW, true
	case "NW":
		return DirNW, true
	default:
		return DirNone, false
	}
}

// Forward is the direction pawns of the given color advance in.
func Forward(c Color) Direction {
	if c == White {
		return DirN
	}
	return DirS
}

func DirectionOf(from, to Position) Direction {
	nr := normalize(to.Row - from.Row)
	nc := normalize(to.Col - from.Col)

	switch {
	case nr == -1 && nc == 0:
		return DirN
	case nr == -1 && nc == 1:
		return DirNE
	case nr == 0 && nc == 1:
		return DirE
	case nr == 1 && nc == 1:
		return DirSE
	case nr == 1 && nc == 0:
		return DirS
	case nr == 1 && nc == -1:
		return DirSW
	case nr == 0 && nc == -1:
		return DirW
	case nr == -1 && nc == -1:
		return DirNW
	default:
		return DirNone
	}
}

// Line returns the squares strictly between two aligned positions, or nil
// when they share no rank, file or diagonal.
func Line(from, to Position) []Position {
	dr := to.Row - from.Row
	dc := to.Col - from.Col
	stepR := normalize(dr)
	stepC := normalize(dc)

	aligned := false
	switch {
	case dr == 0 && dc != 0:
		aligned = true
	case dc == 0 && dr != 0:
		aligned = true
	case Abs(dr) == Abs(dc) && dr != 0:
		aligned = true
	}
	if !aligned {
		return nil
	}

	distance := Max(Abs(dr), Abs(dc)) - 1
	if distance <= 0 {
		return nil
	}

	squares := make([]Position, 0, distance)
	cur := from
	for i := 0; i < distance; i++ {
		cur = cur.Add(stepR, stepC)
		squares = append(squares, cur)
	}
	return squares
}

func normalize(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func Abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
