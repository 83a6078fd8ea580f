package game

import (
	"fmt"
	rand "math/rand/v2"
	"slices"

	"github.com/pokerroom/holdem/internal/poker"
)

// Hand is the per-hand state layered over the room's seats. Seat indices
// stored here stay valid for the whole hand because seat removal is deferred
// until the hand ends.
type Hand struct {
	ID            string       `json:"id"`
	Phase         Phase        `json:"phase"`
	Community     []poker.Card `json:"community"`
	Deck          *poker.Deck  `json:"deck"`
	Burns         int          `json:"burns"`
	Pot           int          `json:"pot"`
	CurrentBet    int          `json:"currentBet"`
	MinRaise      int          `json:"minRaise"`
	LastAggressor int          `json:"lastAggressor"` // seat index, -1 none
	CurrentTurn   int          `json:"currentTurn"`   // seat index, -1 none
	Dealer        int          `json:"dealer"`        // seat index for this hand
	TurnSeq       uint64       `json:"turnSeq"`       // bumps on every turn assignment
}

func (h *Hand) clone() *Hand {
	c := *h
	c.Community = append([]poker.Card(nil), h.Community...)
	if h.Deck != nil {
		c.Deck = poker.NewStackedDeck(h.Deck.Cards()...)
	}
	return &c
}

// setTurn assigns the acting seat and bumps the turn sequence so timers
// armed for earlier turns can detect they are stale.
func (h *Hand) setTurn(idx int) {
	h.CurrentTurn = idx
	if idx >= 0 {
		h.TurnSeq++
	}
}

// StartHand deals a new hand. Only the creator may start play. The dealer
// cursor scans from its current position inclusive, so the first hand lands
// on the lowest chipped seat and later hands rotate one position.
func (r *Room) StartHand(playerID, handID string, rng *rand.Rand) ([]Event, error) {
	return r.startHand(playerID, handID, poker.NewDeck(rng))
}

func (r *Room) startHand(playerID, handID string, deck *poker.Deck) ([]Event, error) {
	if playerID != r.Creator {
		return nil, ruleErrf(CodeNotCreator, "only the room creator can start play")
	}
	if r.Status == StatusFinished {
		return nil, ruleErrf(CodeRoomFinished, "room has finished")
	}
	if r.Hand != nil {
		return nil, ruleErrf(CodeHandInProgress, "a hand is already in progress")
	}
	if r.chippedCount() < 2 {
		return nil, ruleErrf(CodeNeedPlayers, "need at least 2 players with chips")
	}
	r.Status = StatusPlaying

	for _, s := range r.Seats {
		s.resetHand()
	}

	from := r.Dealer
	if from < 0 {
		from = 0
	}
	dealer := r.nextChipped(from)
	r.Dealer = dealer

	var participants []int
	for i, s := range r.Seats {
		if s.Chips > 0 && !s.Leaving {
			participants = append(participants, i)
		}
	}

	// Heads-up the dealer posts the small blind and acts first preflop.
	var sb, bb int
	if len(participants) == 2 {
		sb = dealer
		bb = r.nextChipped(dealer + 1)
	} else {
		sb = r.nextChipped(dealer + 1)
		bb = r.nextChipped(sb + 1)
	}

	h := &Hand{
		ID:            handID,
		Phase:         PhasePreflop,
		Deck:          deck,
		MinRaise:      r.MinBet,
		LastAggressor: -1,
		CurrentTurn:   -1,
		Dealer:        dealer,
	}
	r.Hand = h
	r.Seats[dealer].IsDealer = true

	sbPaid := r.commit(r.Seats[sb], min(r.MinBet/2, r.Seats[sb].Chips))
	bbPaid := r.commit(r.Seats[bb], min(r.MinBet, r.Seats[bb].Chips))
	r.Seats[sb].IsSmallBlind = true
	r.Seats[bb].IsBigBlind = true
	h.CurrentBet = r.MinBet
	h.LastAggressor = bb

	// Two cards each, one at a time, starting left of the dealer.
	for round := 0; round < 2; round++ {
		for i := range participants {
			idx := participants[(indexOf(participants, dealer)+1+i)%len(participants)]
			card, err := h.Deck.Deal()
			if err != nil {
				return nil, fmt.Errorf("dealing hole cards: %w", err)
			}
			r.Seats[idx].Hole = append(r.Seats[idx].Hole, card)
		}
	}

	events := []Event{{
		Type:  EventHandStarted,
		Seat:  dealer,
		Phase: PhasePreflop,
		Posts: []BlindPost{
			{Seat: sb, PlayerID: r.Seats[sb].PlayerID, Kind: "small", Amount: sbPaid},
			{Seat: bb, PlayerID: r.Seats[bb].PlayerID, Kind: "big", Amount: bbPaid},
		},
	}}

	// First to act sits left of the big blind. settle resolves the corner
	// cases where the blinds already put everyone all-in.
	h.CurrentTurn = bb
	if err := r.settle(&events, true); err != nil {
		return events, err
	}
	return events, nil
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

// commit moves up to n chips from the seat into the pot and returns the
// amount actually moved. A seat whose stack hits zero is all-in.
func (r *Room) commit(s *Seat, n int) int {
	if n > s.Chips {
		n = s.Chips
	}
	if n <= 0 {
		return 0
	}
	s.Chips -= n
	s.Bet += n
	s.TotalBet += n
	r.Hand.Pot += n
	if s.Chips == 0 {
		s.AllIn = true
	}
	return n
}

// Apply validates and applies one player action, then advances the hand as
// far as it can without further input. On a RuleError no state changed.
func (r *Room) Apply(playerID string, kind ActionKind, amount int) ([]Event, error) {
	idx := r.SeatIndex(playerID)
	if idx < 0 {
		return nil, ruleErrf(CodeNotSeated, "player is not seated at this room")
	}
	return r.applySeat(idx, kind, amount, false)
}

func (r *Room) applySeat(idx int, kind ActionKind, amount int, auto bool) ([]Event, error) {
	h := r.Hand
	if h == nil || !h.Phase.betting() {
		return nil, ruleErrf(CodeWrongPhase, "no betting round in progress")
	}
	if idx != h.CurrentTurn {
		return nil, ruleErrf(CodeNotYourTurn, "not your turn")
	}
	s := r.Seats[idx]

	paid := 0
	switch kind {
	case Fold:
		s.Folded = true

	case Check:
		if s.Bet != h.CurrentBet {
			return nil, ruleErrf(CodeCannotCheck, "cannot check facing a bet of %d", h.CurrentBet)
		}

	case Call:
		toCall := h.CurrentBet - s.Bet
		paid = r.commit(s, toCall)

	case Bet:
		if h.CurrentBet != 0 {
			return nil, ruleErrf(CodeIllegalAction, "a bet is already open; raise instead")
		}
		if amount < r.MinBet {
			return nil, ruleErrf(CodeBetBelowMinimum, "bet %d is below the minimum of %d", amount, r.MinBet)
		}
		if r.MaxBet > 0 && amount > r.MaxBet {
			return nil, ruleErrf(CodeBetAboveMaximum, "bet %d exceeds the maximum of %d", amount, r.MaxBet)
		}
		if amount > s.Chips {
			return nil, ruleErrf(CodeInsufficientChips, "bet %d exceeds stack of %d", amount, s.Chips)
		}
		paid = r.commit(s, amount)
		h.CurrentBet = amount
		h.MinRaise = amount
		h.LastAggressor = idx
		r.resetActed(idx)

	case Raise:
		if h.CurrentBet == 0 {
			return nil, ruleErrf(CodeIllegalAction, "nothing to raise; bet instead")
		}
		if amount < h.MinRaise {
			return nil, ruleErrf(CodeRaiseBelowMinimum, "raise %d is below the minimum of %d", amount, h.MinRaise)
		}
		if r.MaxBet > 0 && amount > r.MaxBet {
			return nil, ruleErrf(CodeBetAboveMaximum, "raise %d exceeds the maximum of %d", amount, r.MaxBet)
		}
		target := h.CurrentBet + amount
		if need := target - s.Bet; need > s.Chips {
			// Stack cannot cover the full raise; it becomes an all-in.
			target = s.Bet + s.Chips
		}
		if target <= h.CurrentBet {
			return nil, ruleErrf(CodeInsufficientChips, "stack cannot raise above the current bet")
		}
		paid = r.commit(s, target-s.Bet)
		r.applyRaise(idx, target)

	case AllIn:
		if s.Chips == 0 {
			return nil, ruleErrf(CodeIllegalAction, "seat is already all-in")
		}
		paid = r.commit(s, s.Chips)
		if s.Bet > h.CurrentBet {
			r.applyRaise(idx, s.Bet)
		}

	default:
		return nil, ruleErrf(CodeIllegalAction, "unknown action")
	}

	s.Acted = true
	events := []Event{actionEvent(idx, s.PlayerID, kind, paid, auto)}
	if err := r.settle(&events, true); err != nil {
		return events, err
	}
	return events, nil
}

// applyRaise records a raise to target. Only a full raise, one whose
// increment meets the minimum, re-opens the betting and resets the minimum;
// a short all-in raises the price to call without re-opening.
func (r *Room) applyRaise(idx, target int) {
	h := r.Hand
	incr := target - h.CurrentBet
	h.CurrentBet = target
	if incr >= h.MinRaise {
		h.MinRaise = incr
		h.LastAggressor = idx
		r.resetActed(idx)
	}
}

// resetActed clears the acted flag of every active seat except the
// aggressor, giving each of them a fresh decision.
func (r *Room) resetActed(aggressor int) {
	for i, s := range r.Seats {
		if i != aggressor && s.CanAct() {
			s.Acted = false
		}
	}
}

// settle advances the hand as far as possible: moves the turn, closes
// finished betting rounds, deals streets, runs out the board when nobody can
// act, and resolves the hand when it ends. turnConsumed means the current
// turn holder just acted (or no turn is assigned) and the turn must move.
func (r *Room) settle(events *[]Event, turnConsumed bool) error {
	h := r.Hand
	for {
		if r.nonFoldedCount() <= 1 {
			r.finishSingleWinner(events)
			return nil
		}
		if !r.roundComplete() {
			if turnConsumed || h.CurrentTurn < 0 || !r.Seats[h.CurrentTurn].CanAct() {
				h.setTurn(r.nextActor(h.CurrentTurn + 1))
			}
			return nil
		}
		r.collectRound()
		if h.Phase == PhaseRiver {
			return r.showdown(events)
		}
		if err := r.dealStreet(events); err != nil {
			return err
		}
		// Post-deal the search for the first actor starts left of the dealer.
		h.CurrentTurn = h.Dealer
		turnConsumed = true
	}
}

// roundComplete reports whether the current betting round is closed: every
// active seat has matched the current bet and acted. A lone active seat only
// needs to have matched; with nobody left to fold, further action is moot.
func (r *Room) roundComplete() bool {
	h := r.Hand
	active := 0
	for _, s := range r.Seats {
		if s.CanAct() {
			active++
		}
	}
	for _, s := range r.Seats {
		if !s.CanAct() {
			continue
		}
		if s.Bet != h.CurrentBet {
			return false
		}
		if active > 1 && !s.Acted {
			return false
		}
	}
	return true
}

// collectRound closes the betting round. Chips moved into the pot at commit
// time, so only the round bookkeeping resets here.
func (r *Room) collectRound() {
	h := r.Hand
	for _, s := range r.Seats {
		s.Bet = 0
		s.Acted = false
	}
	h.CurrentBet = 0
	h.MinRaise = r.MinBet
	h.LastAggressor = -1
}

// dealStreet burns one card and deals the next street.
func (r *Room) dealStreet(events *[]Event) error {
	h := r.Hand
	if err := h.Deck.Burn(); err != nil {
		return fmt.Errorf("burning before %v: %w", h.Phase+1, err)
	}
	h.Burns++
	n := 1
	if h.Phase == PhasePreflop {
		n = 3
	}
	for i := 0; i < n; i++ {
		card, err := h.Deck.Deal()
		if err != nil {
			return fmt.Errorf("dealing %v: %w", h.Phase+1, err)
		}
		h.Community = append(h.Community, card)
	}
	h.Phase++
	*events = append(*events, Event{Type: EventPhaseAdvanced, Phase: h.Phase})
	return nil
}

func (r *Room) nonFoldedCount() int {
	n := 0
	for _, s := range r.Seats {
		if s.InHand() && !s.Folded {
			n++
		}
	}
	return n
}

// finishSingleWinner awards the whole pot without showdown when everyone
// else has folded. The winner's cards stay hidden.
func (r *Room) finishSingleWinner(events *[]Event) {
	h := r.Hand
	winner := -1
	for i, s := range r.Seats {
		if s.InHand() && !s.Folded {
			winner = i
			break
		}
	}
	r.collectRound()
	w := r.Seats[winner]
	w.Chips += h.Pot
	*events = append(*events, Event{
		Type:    EventHandEnded,
		Payouts: []Payout{{Seat: winner, PlayerID: w.PlayerID, Amount: h.Pot}},
	})
	r.finishHand(events)
}

// showdown evaluates every remaining seat, splits the pot into side pots by
// contribution level, and awards each pot to its best eligible hand.
func (r *Room) showdown(events *[]Event) error {
	h := r.Hand
	h.Phase = PhaseShowdown

	evals := make(map[int]poker.Eval)
	var reveals []Reveal
	for i, s := range r.Seats {
		if !s.InHand() || s.Folded {
			continue
		}
		ev := poker.Evaluate(s.Hole, h.Community)
		evals[i] = ev
		reveals = append(reveals, Reveal{
			Seat:     i,
			PlayerID: s.PlayerID,
			Cards:    append([]poker.Card(nil), s.Hole...),
			Hand:     ev.Category.String(),
		})
	}

	pots := SidePots(r)
	total := 0
	for _, p := range pots {
		total += p.Amount
	}
	if total != h.Pot {
		return fmt.Errorf("%w: side pots sum to %d, pot is %d", ErrInvariant, total, h.Pot)
	}

	won := make(map[int]int)
	for _, pot := range pots {
		winners := bestEligible(pot.Eligible, evals)
		if len(winners) == 0 {
			return fmt.Errorf("%w: pot of %d has no eligible winner", ErrInvariant, pot.Amount)
		}
		share := pot.Amount / len(winners)
		rem := pot.Amount % len(winners)
		// Odd chips go to the winners closest clockwise from the dealer.
		sortClockwise(winners, h.Dealer, len(r.Seats))
		for i, w := range winners {
			amt := share
			if i < rem {
				amt++
			}
			won[w] += amt
		}
	}

	var payouts []Payout
	for i, s := range r.Seats {
		amt, ok := won[i]
		if !ok {
			continue
		}
		s.Chips += amt
		payouts = append(payouts, Payout{
			Seat:     i,
			PlayerID: s.PlayerID,
			Amount:   amt,
			Category: evals[i].Category,
			Hand:     evals[i].Category.String(),
		})
	}

	*events = append(*events,
		Event{Type: EventShowdown, Reveals: reveals, Payouts: payouts},
		Event{Type: EventHandEnded, Payouts: payouts},
	)
	r.finishHand(events)
	return nil
}

// bestEligible returns the seats sharing the best evaluation among eligible.
func bestEligible(eligible []int, evals map[int]poker.Eval) []int {
	var winners []int
	var best poker.Eval
	for _, idx := range eligible {
		ev, ok := evals[idx]
		if !ok {
			continue
		}
		switch {
		case len(winners) == 0 || ev.Beats(best):
			winners = winners[:0]
			winners = append(winners, idx)
			best = ev
		case ev.Score == best.Score:
			winners = append(winners, idx)
		}
	}
	return winners
}

// sortClockwise orders seat indices by clockwise distance from the dealer,
// starting at the dealer's left.
func sortClockwise(seats []int, dealer, n int) {
	dist := func(seat int) int {
		return ((seat-dealer-1)%n + n) % n
	}
	for i := 1; i < len(seats); i++ {
		for j := i; j > 0 && dist(seats[j]) < dist(seats[j-1]); j-- {
			seats[j], seats[j-1] = seats[j-1], seats[j]
		}
	}
}

// finishHand tears down the hand, removes seats marked as leaving, rotates
// the dealer cursor, and either keeps the table open or finishes the room.
func (r *Room) finishHand(events *[]Event) {
	h := r.Hand
	r.Hand = nil

	next := r.nextChipped(h.Dealer + 1)
	for _, s := range r.Seats {
		s.resetHand()
	}
	kept := r.Seats[:0]
	for i, s := range r.Seats {
		if s.Leaving {
			if i < next {
				next--
			}
			continue
		}
		kept = append(kept, s)
	}
	r.Seats = kept
	if next >= len(r.Seats) {
		next = -1
	}
	r.Dealer = next

	if r.chippedCount() >= 2 {
		*events = append(*events, Event{Type: EventWaiting})
	} else {
		r.Status = StatusFinished
	}
}

// ApplyTimeout folds the seat holding the turn identified by handID and
// seq. A timer that fires after the turn already moved on is a no-op.
func (r *Room) ApplyTimeout(handID string, seq uint64) ([]Event, error) {
	h := r.Hand
	if h == nil || h.ID != handID || h.TurnSeq != seq || h.CurrentTurn < 0 {
		return nil, nil
	}
	return r.applySeat(h.CurrentTurn, Fold, 0, true)
}

// Disconnect marks the player's seat disconnected. The seat keeps playing;
// turn timers fold it if its turn comes up.
func (r *Room) Disconnect(playerID string) bool {
	idx := r.SeatIndex(playerID)
	if idx < 0 {
		return false
	}
	r.Seats[idx].Connected = false
	return true
}

// Reconnect marks the player's seat connected again.
func (r *Room) Reconnect(playerID string) bool {
	idx := r.SeatIndex(playerID)
	if idx < 0 {
		return false
	}
	r.Seats[idx].Connected = true
	return true
}

// Leave removes the player. Mid-hand the seat is folded and flagged, and the
// chips it already committed stay in the pot; physical removal waits for the
// hand to end so seat indices stay stable.
func (r *Room) Leave(playerID string) ([]Event, error) {
	idx := r.SeatIndex(playerID)
	if idx < 0 {
		return nil, ruleErrf(CodeNotSeated, "player is not seated at this room")
	}
	if r.Hand == nil {
		r.removeSeat(idx)
		return nil, nil
	}
	s := r.Seats[idx]
	s.Leaving = true
	if !s.InHand() || s.Folded {
		return nil, nil
	}
	return r.foldOut(idx)
}

// foldOut folds a seat outside the normal turn flow, for leaves and
// expired disconnect grace windows.
func (r *Room) foldOut(idx int) ([]Event, error) {
	h := r.Hand
	if idx == h.CurrentTurn {
		return r.applySeat(idx, Fold, 0, true)
	}
	s := r.Seats[idx]
	s.Folded = true
	events := []Event{actionEvent(idx, s.PlayerID, Fold, 0, true)}
	if err := r.settle(&events, false); err != nil {
		return events, err
	}
	return events, nil
}

// removeSeat splices the seat out and keeps the dealer cursor pointing at
// the same physical seat. Only legal between hands.
func (r *Room) removeSeat(idx int) {
	r.Seats = append(r.Seats[:idx], r.Seats[idx+1:]...)
	if idx <= r.Dealer {
		r.Dealer--
	}
	if r.Dealer >= len(r.Seats) {
		r.Dealer = -1
	}
}

// ForceEnd finishes the room immediately. An in-progress hand is settled
// fairly: the board runs out and the pot is awarded at showdown.
func (r *Room) ForceEnd() ([]Event, error) {
	var events []Event
	if r.Hand != nil {
		if r.nonFoldedCount() <= 1 {
			r.finishSingleWinner(&events)
		} else {
			r.collectRound()
			for r.Hand.Phase.betting() && r.Hand.Phase != PhaseRiver {
				if err := r.dealStreet(&events); err != nil {
					return events, err
				}
			}
			if err := r.showdown(&events); err != nil {
				return events, err
			}
		}
		// The room is closing, so the hand-end waiting signal is moot.
		events = slices.DeleteFunc(events, func(e Event) bool {
			return e.Type == EventWaiting
		})
	}
	r.Status = StatusFinished
	return events, nil
}
