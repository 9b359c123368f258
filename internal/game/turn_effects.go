package game

import "chess_architect/internal/shared"

// Piece values shared by plant feeding and the search.
var PieceValues = map[PieceType]int{
	Pawn:   100,
	Knight: 320,
	Bishop: 330,
	Rook:   500,
	Queen:  900,
	King:   20000,
}

func (t *turn) buildMove(dest Position) {
	board := t.prev.Board
	from := t.piece.Position
	mv := &Move{
		From:       from,
		To:         dest,
		Piece:      t.piece.Clone(),
		Captured:   board.At(dest).Clone(),
		DecisionMs: t.decisionMs,
	}
	if isCastlingMove(t.piece, from, dest) {
		rookFrom, rookTo := castlingRook(from, dest)
		mv.IsCastling = true
		mv.RookFrom, mv.RookTo = &rookFrom, &rookTo
	}
	if isEnPassantMove(board, t.piece, from, dest, t.prev) {
		if victim := board.At(Position{Row: from.Row, Col: dest.Col}); victim != nil && victim.Color != t.mover {
			mv.IsEnPassant = true
			mv.Captured = victim.Clone()
		}
	}
	if t.piece.Type == Pawn {
		idx := t.mover.Index()
		switch {
		case t.prev.PendingTransform[idx]:
			promo := Queen
			if effs := colorEffects(t.prev, t.mover, EffectRepetitionTransform); len(effs) > 0 {
				promo = effs[0].Effect.PieceType("promoteTo", Queen)
			}
			mv.Promotion = &promo
			t.next.PendingTransform[idx] = false
			t.emit(EventTransform, dest, "")
		case dest.Row == promotionRow(t.mover):
			promo := Queen
			mv.Promotion = &promo
		}
	}
	t.move = mv
}

func (t *turn) execute() {
	board := t.next.Board
	mv := t.move
	if mv.IsEnPassant {
		board.Remove(Position{Row: mv.From.Row, Col: mv.To.Col})
	}
	if mv.IsCastling {
		if rook := board.Remove(*mv.RookFrom); rook != nil {
			rook.HasMoved = true
			board.Set(*mv.RookTo, rook)
		}
	}
	moved := board.Remove(mv.From)
	if moved == nil {
		moved = t.piece.Clone()
	}
	moved.HasMoved = true
	moved.Hidden = false
	if mv.Promotion != nil {
		moved.Type = *mv.Promotion
	}
	board.Set(mv.To, moved)
	t.moved = moved

	if t.piece.Type == King && isKnightJump(mv.From, mv.To) && len(t.effects(EffectKingKnightJump)) > 0 {
		t.next.KnightJumpUsed[t.mover.Index()] = true
	}
}

// boardSideEffects resolves explosions, markers and contact ordnance.
func (t *turn) boardSideEffects() {
	mv := t.move
	if mv.Captured != nil {
		for _, re := range t.effects(EffectExplodeOnCapture) {
			radius := re.Effect.Int("radius", 1)
			for _, victim := range t.next.Board.AllPieces() {
				if victim.Color == t.mover || victim.Type == King || victim.Position == mv.To {
					continue
				}
				if shared.Chebyshev(victim.Position, mv.To) > radius {
					continue
				}
				t.next.Board.Remove(victim.Position)
				mv.SpecialCaptures = append(mv.SpecialCaptures, SpecialCapture{Piece: victim, By: mv.To, Cause: EventExplosion})
			}
			t.emit(EventExplosion, mv.To, re.RuleID)
		}
	}
	for _, re := range t.effects(EffectLeavePhantom) {
		t.addMarker(MarkerPhantom, mv.From, re.Effect.Int("duration", 2))
		t.emit(EventPhantom, mv.From, re.RuleID)
	}
	for _, re := range t.effects(EffectProjectMarker) {
		t.addMarker(MarkerProjection, mv.To, re.Effect.Int("duration", 2))
		t.emit(EventProjection, mv.To, re.RuleID)
	}

	kept := t.next.Ordnance[:0:0]
	for _, ord := range t.next.Ordnance {
		if ord.Trigger == DetonateOnContact && ord.Owner != t.mover && ord.Position == mv.To {
			mv.SpecialCaptures = append(mv.SpecialCaptures, detonate(t.next, ord)...)
			continue
		}
		kept = append(kept, ord)
	}
	t.next.Ordnance = kept
}

func (t *turn) addMarker(kind MarkerKind, at Position, duration int) {
	if duration <= 0 {
		duration = 2
	}
	t.next.Markers = append(t.next.Markers, Marker{Kind: kind, Color: t.mover, Position: at, Remaining: duration})
}

// capturePlants turns a capturing piece into a plant, then lets every older
// plant of the mover feed on its highest-value neighbour and wilt once its
// duration has elapsed.
func (t *turn) capturePlants() {
	board := t.next.Board
	duration := 2
	effs := colorEffects(t.prev, t.mover, EffectCarnivorousPlant)
	if len(effs) > 0 {
		duration = effs[0].Effect.Int("duration", 2)
	}

	for _, plant := range board.Pieces(t.mover) {
		if !plant.IsPlant() {
			continue
		}
		since := plant.Special[SpecialPlantSince]
		if t.prev.Turn <= since {
			continue
		}
		if prey := t.bestPrey(plant.Position); prey != nil {
			board.Remove(prey.Position)
			t.move.SpecialCaptures = append(t.move.SpecialCaptures, SpecialCapture{Piece: prey, By: plant.Position, Cause: EventPlantFeed})
			t.emit(EventPlantFeed, plant.Position, "")
		}
		if t.prev.Turn-since >= duration {
			delete(plant.Special, SpecialPlantSince)
			delete(plant.Special, SpecialPlantType)
		}
	}

	if t.move.Captured == nil || t.moved == nil || board.At(t.move.To) != t.moved {
		return
	}
	for _, re := range t.effects(EffectCarnivorousPlant) {
		if t.moved.Special == nil {
			t.moved.Special = make(map[string]int)
		}
		t.moved.Special[SpecialPlantSince] = t.prev.Turn
		t.moved.Special[SpecialPlantType] = int(t.moved.Type)
		t.emit(EventPlant, t.move.To, re.RuleID)
		break
	}
}

func (t *turn) bestPrey(at Position) *Piece {
	var best *Piece
	for _, pc := range t.next.Board.Pieces(t.opp) {
		if pc.Type == King || shared.Chebyshev(pc.Position, at) != 1 {
			continue
		}
		if best == nil || PieceValues[pc.Type] > PieceValues[best.Type] {
			best = pc
		}
	}
	return best
}

func (t *turn) recordCaptures() {
	if t.move.Captured != nil {
		t.next.Captured = append(t.next.Captured, t.move.Captured)
	}
	for _, sc := range t.move.SpecialCaptures {
		t.next.Captured = append(t.next.Captured, sc.Piece)
	}
}

// updateMirror clears the constraint the mover was under and sets a new one
// on the opponent when the mover pushed a pawn onto a file the opponent also
// holds a pawn on.
func (t *turn) updateMirror() {
	if fm := t.next.ForcedMirror; fm != nil && fm.Color == t.mover {
		t.next.ForcedMirror = nil
	}
	if t.piece.Type != Pawn {
		return
	}
	effs := t.effects(EffectMirrorResponse)
	if len(effs) == 0 {
		return
	}
	fm := &MirrorConstraint{Color: t.opp, File: t.move.To.Col}
	if !mirrorSatisfiable(t.next.Board, fm, t.next) {
		return
	}
	t.next.ForcedMirror = fm
	t.emit(EventMirror, t.move.To, effs[0].RuleID)
}

func (t *turn) captureTempo() {
	if t.move.Captured == nil {
		return
	}
	for _, re := range t.effects(EffectCaptureGrantsTempo) {
		t.next.PendingExtraMoves[t.opp.Index()] += re.Effect.Int("count", 1)
		t.emit(EventCaptureTempo, t.move.To, re.RuleID)
	}
}

// updateFreezes prunes entries whose holder is gone or whose time is up,
// then applies a one-shot freeze around a successful strike.
func (t *turn) updateFreezes() {
	defer t.recheckMirror()
	t.next.Freezes = pruneFreezes(t.next.Board, t.next.Freezes)

	if !t.move.IsCapture() || t.next.FreezeUsed[t.mover.Index()] {
		return
	}
	effs := t.effects(EffectFreezeOnStrike)
	if len(effs) == 0 {
		return
	}
	turns := effs[0].Effect.Int("turns", 1)
	if turns <= 0 {
		turns = 1
	}
	for _, pc := range t.next.Board.Pieces(t.opp) {
		if pc.Type == King || shared.Chebyshev(pc.Position, t.move.To) != 1 {
			continue
		}
		t.next.Freezes = append(t.next.Freezes, FreezeEffect{Color: pc.Color, Position: pc.Position, Remaining: turns})
	}
	t.next.FreezeUsed[t.mover.Index()] = true
	t.emit(EventFreeze, t.move.To, effs[0].RuleID)
}

// recheckMirror drops a forced mirror that a fresh freeze made impossible
// to answer.
func (t *turn) recheckMirror() {
	if fm := t.next.ForcedMirror; fm != nil && !mirrorSatisfiable(t.next.Board, fm, t.next) {
		t.next.ForcedMirror = nil
	}
}

func pruneFreezes(board *Board, freezes []FreezeEffect) []FreezeEffect {
	kept := freezes[:0:0]
	for _, f := range freezes {
		holder := board.At(f.Position)
		if f.Remaining <= 0 || holder == nil || holder.Color != f.Color {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func (t *turn) clearReplay() {
	t.next.ReplayOffers[t.mover.Index()] = false
}

// pawnRefund respawns captured pawns on their home rank while the victim's
// token bank lasts.
func (t *turn) pawnRefund() {
	victims := make([]*Piece, 0, 1+len(t.move.SpecialCaptures))
	if t.move.Captured != nil {
		victims = append(victims, t.move.Captured)
	}
	for _, sc := range t.move.SpecialCaptures {
		victims = append(victims, sc.Piece)
	}
	for _, victim := range victims {
		if victim.Type != Pawn {
			continue
		}
		idx := victim.Color.Index()
		if t.next.VIPTokens[idx] <= 0 {
			continue
		}
		effs := colorEffects(t.prev, victim.Color, EffectPawnRefund)
		if len(effs) == 0 {
			continue
		}
		spot, ok := refundSquare(t.next.Board, victim.Color, victim.Position.Col)
		if !ok {
			continue
		}
		t.next.Board.Set(spot, NewPiece(Pawn, victim.Color, spot))
		t.next.VIPTokens[idx]--
		t.emit(EventRefund, spot, effs[0].RuleID)
	}
}

func refundSquare(board *Board, c Color, file int) (Position, bool) {
	row := pawnStartRow(c)
	if p := (Position{Row: row, Col: file}); board.Empty(p) {
		return p, true
	}
	for col := 0; col < 8; col++ {
		if p := (Position{Row: row, Col: col}); board.Empty(p) {
			return p, true
		}
	}
	return Position{}, false
}

// trackRepetition counts the new signature and arms a forced transformation
// for the opponent on its third occurrence.
func (t *turn) trackRepetition() {
	sig := t.next.Board.Signature()
	t.next.PositionCounts[sig]++
	if t.next.PositionCounts[sig] != 3 {
		return
	}
	if effs := colorEffects(t.prev, t.opp, EffectRepetitionTransform); len(effs) > 0 {
		t.next.PendingTransform[t.opp.Index()] = true
		t.emit(EventTransform, t.move.To, effs[0].RuleID)
	}
}

func (t *turn) revealOpening() {
	for _, c := range shared.Colors {
		idx := c.Index()
		if t.next.OpeningRevealed[idx] {
			continue
		}
		effs := colorEffects(t.prev, c, EffectBlindOpening)
		if len(effs) == 0 || t.prev.Turn < effs[0].Effect.Int("revealTurn", 2) {
			continue
		}
		for _, pc := range t.next.Board.Pieces(c) {
			pc.Hidden = false
		}
		t.next.OpeningRevealed[idx] = true
		if king, ok := t.next.Board.FindKing(c); ok {
			t.emit(EventReveal, king, effs[0].RuleID)
		}
	}
}

func (t *turn) opponentStatus() {
	t.oppStatus = computeStatus(t.next.Board, t.opp, t.next)
}

func (t *turn) checkReplay() {
	if t.oppStatus != StatusCheck {
		return
	}
	effs := colorEffects(t.prev, t.opp, EffectCheckReplay)
	if len(effs) == 0 {
		return
	}
	idx := t.opp.Index()
	t.next.ReplayOffers[idx] = true
	t.next.PendingExtraMoves[idx]++
	if king, ok := t.next.Board.FindKing(t.opp); ok {
		t.emit(EventReplay, king, effs[0].RuleID)
	}
}

// countExtraMoves settles how many more moves the mover has this turn:
// the bank shrinks by one for an extra move just played, and rule grants
// only count on the first move of a turn.
func (t *turn) countExtraMoves() {
	idx := t.mover.Index()
	bank := t.next.ExtraMoves[idx]
	if t.prev.MovesThisTurn > 0 && bank > 0 {
		bank--
	}
	if t.prev.MovesThisTurn == 0 {
		for _, re := range t.effects(EffectExtraMove) {
			bank += re.Effect.Int("count", 1)
		}
		if t.decisionMs != nil && (t.move.IsCapture() || t.oppStatus == StatusCheck) {
			for _, re := range t.effects(EffectQuickStrike) {
				if *t.decisionMs <= int64(re.Effect.Int("thresholdMs", 3000)) {
					bank++
					t.emit(EventQuickStrike, t.move.To, re.RuleID)
					break
				}
			}
		}
	}
	if t.oppStatus != StatusActive {
		bank = 0
	}
	t.next.ExtraMoves[idx] = bank
}

// passOrContinue either keeps the move with the mover (extra moves left and
// something to play) or hands the turn over.
func (t *turn) passOrContinue() {
	idx := t.mover.Index()
	if t.next.ExtraMoves[idx] > 0 && HasAnyLegalMoves(t.next.Board, t.mover, t.next) {
		t.next.MovesThisTurn = t.prev.MovesThisTurn + 1
		t.next.Status = computeStatus(t.next.Board, t.mover, t.next)
		return
	}

	t.next.ExtraMoves[idx] = 0
	t.next.MovesThisTurn = 0
	for i := range t.next.Freezes {
		if t.next.Freezes[i].Color == t.mover {
			t.next.Freezes[i].Remaining--
		}
	}
	t.next.Freezes = pruneFreezes(t.next.Board, t.next.Freezes)
	t.next.Markers = ageMarkers(t.next.Markers, t.mover)

	oppIdx := t.opp.Index()
	t.next.ExtraMoves[oppIdx] += t.next.PendingExtraMoves[oppIdx]
	t.next.PendingExtraMoves[oppIdx] = 0

	t.next.CurrentPlayer = t.opp
	if t.mover == Black {
		t.next.Turn++
	}
	t.next.Status = t.oppStatus
}

func ageMarkers(markers []Marker, owner Color) []Marker {
	kept := markers[:0:0]
	for _, m := range markers {
		if m.Color == owner {
			m.Remaining--
		}
		if m.Remaining > 0 {
			kept = append(kept, m)
		}
	}
	return kept
}

func (t *turn) finalize() {
	mv := t.move
	mv.Snapshot = t.next.Board.Serialize()
	mv.Notation = Notation(mv)
	mv.Timestamp = now()
	t.next.History = append(t.next.History, mv)
	t.next.LastMove[t.mover.Index()] = mv
}
