package game

import (
	"time"

	"chess_architect/internal/shared"
)

type (
	Color     = shared.Color
	PieceType = shared.PieceType
	Position  = shared.Position
	Direction = shared.Direction
)

const (
	White = shared.White
	Black = shared.Black

	Pawn   = shared.Pawn
	Knight = shared.Knight
	Bishop = shared.Bishop
	Rook   = shared.Rook
	Queen  = shared.Queen
	King   = shared.King
)

// Special-state keys carried in Piece.Special.
const (
	SpecialPlantSince = "plantSince"
	SpecialPlantType  = "plantType"
)

// Piece represents a single piece on the board. A board cell owns its piece;
// moving a piece places a modified clone on the destination.
type Piece struct {
	Type     PieceType      `json:"type"`
	Color    Color          `json:"color"`
	Position Position       `json:"position"`
	HasMoved bool           `json:"hasMoved"`
	Hidden   bool           `json:"hidden,omitempty"`
	Special  map[string]int `json:"special,omitempty"`
}

func NewPiece(pt PieceType, color Color, pos Position) *Piece {
	return &Piece{Type: pt, Color: color, Position: pos}
}

func (p *Piece) Clone() *Piece {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Special != nil {
		clone.Special = make(map[string]int, len(p.Special))
		for k, v := range p.Special {
			clone.Special[k] = v
		}
	}
	return &clone
}

// IsPlant reports whether the piece is currently a capture-plant.
func (p *Piece) IsPlant() bool {
	if p == nil || p.Special == nil {
		return false
	}
	_, ok := p.Special[SpecialPlantSince]
	return ok
}

type Status uint8

const (
	StatusActive Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
	StatusDraw
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCheck:
		return "check"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	case StatusDraw:
		return "draw"
	case StatusTimeout:
		return "timeout"
	default:
		return "?"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal reports whether no further moves may be resolved.
func (s Status) Terminal() bool {
	return s == StatusCheckmate || s == StatusStalemate || s == StatusDraw || s == StatusTimeout
}

// SpecialCapture is a piece removed by a rule side effect rather than by the
// moving piece landing on it.
type SpecialCapture struct {
	Piece *Piece   `json:"piece"`
	By    Position `json:"by"`
	Cause string   `json:"cause"`
}

// Move is an immutable history record. Snapshot and Notation are attached
// once, when the move is finalized.
type Move struct {
	From            Position         `json:"from"`
	To              Position         `json:"to"`
	Piece           *Piece           `json:"piece"`
	Captured        *Piece           `json:"captured,omitempty"`
	Promotion       *PieceType       `json:"promotion,omitempty"`
	IsCastling      bool             `json:"isCastling,omitempty"`
	IsEnPassant     bool             `json:"isEnPassant,omitempty"`
	RookFrom        *Position        `json:"rookFrom,omitempty"`
	RookTo          *Position        `json:"rookTo,omitempty"`
	SpecialCaptures []SpecialCapture `json:"specialCaptures,omitempty"`
	Snapshot        string           `json:"snapshot"`
	Notation        string           `json:"notation"`
	Timestamp       time.Time        `json:"timestamp"`
	DecisionMs      *int64           `json:"decisionMs,omitempty"`
}

// IsCapture reports whether the move removed any enemy piece.
// Pieces of the mover's own color lost to ordnance do not count.
func (m *Move) IsCapture() bool {
	if m == nil {
		return false
	}
	if m.Captured != nil {
		return true
	}
	for _, sc := range m.SpecialCaptures {
		if sc.Piece != nil && (m.Piece == nil || sc.Piece.Color != m.Piece.Color) {
			return true
		}
	}
	return false
}

// FreezeEffect immobilizes the piece of Color standing exactly on Position.
type FreezeEffect struct {
	Color     Color    `json:"color"`
	Position  Position `json:"position"`
	Remaining int      `json:"remaining"`
}

// MirrorConstraint obliges Color to answer with a pawn move on File.
type MirrorConstraint struct {
	Color Color `json:"color"`
	File  int   `json:"file"`
}

type MarkerKind string

const (
	MarkerPhantom    MarkerKind = "phantom"
	MarkerProjection MarkerKind = "projection"
)

// Marker is a non-blocking board annotation left by a rule.
type Marker struct {
	Kind      MarkerKind `json:"kind"`
	Color     Color      `json:"color"`
	Position  Position   `json:"position"`
	Remaining int        `json:"remaining"`
}

// Event is a transient visual/audio side effect of the current ply.
type Event struct {
	Kind      string   `json:"kind"`
	Position  Position `json:"position"`
	Animation string   `json:"animation,omitempty"`
	Sound     string   `json:"sound,omitempty"`
	RuleID    string   `json:"ruleId,omitempty"`
}

const (
	EventExplosion    = "explosion"
	EventPhantom      = "phantom"
	EventProjection   = "projection"
	EventPlant        = "plant"
	EventPlantFeed    = "plant-feed"
	EventFreeze       = "freeze"
	EventRefund       = "refund"
	EventTransform    = "transform"
	EventReveal       = "reveal"
	EventReplay       = "replay"
	EventDetonation   = "detonation"
	EventQuickStrike  = "quick-strike"
	EventMirror       = "mirror"
	EventCaptureTempo = "capture-tempo"
)
