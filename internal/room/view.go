package room

import (
	"time"

	"github.com/pokerroom/holdem/internal/game"
)

// HiddenCard is the placeholder sent for another player's hole card.
const HiddenCard = "??"

// SeatView is one seat as a subscriber sees it.
type SeatView struct {
	PlayerID     string   `json:"id"`
	Username     string   `json:"username"`
	Chips        int      `json:"chips"`
	Bet          int      `json:"bet"`
	TotalBet     int      `json:"totalBet"`
	Folded       bool     `json:"folded"`
	AllIn        bool     `json:"allIn"`
	Connected    bool     `json:"connected"`
	IsDealer     bool     `json:"isDealer"`
	IsSmallBlind bool     `json:"isSmallBlind"`
	IsBigBlind   bool     `json:"isBigBlind"`
	Cards        []string `json:"hand,omitempty"`
}

// PotView is one pot at the table.
type PotView struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// View is the redacted room state for one viewer. It never contains the
// deck, and the only hole cards it contains are the viewer's own, except
// at showdown where every unfolded hand is open.
type View struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Creator     string     `json:"creator"`
	Status      string     `json:"status"`
	SeatLimit   int        `json:"seatLimit"`
	MinBet      int        `json:"minBet"`
	MaxBet      int        `json:"maxBet,omitempty"`
	BuyIn       int        `json:"buyIn"`
	Seats       []SeatView `json:"players"`
	Dealer      int        `json:"dealer"`
	HandID      string     `json:"handId,omitempty"`
	Phase       string     `json:"phase"`
	Community   []string   `json:"community,omitempty"`
	Pot         int        `json:"pot"`
	Pots        []PotView  `json:"pots,omitempty"`
	CurrentBet  int        `json:"currentBet"`
	MinRaise    int        `json:"minRaise,omitempty"`
	CurrentTurn int        `json:"currentTurn"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ViewFor renders the room for viewerID. Pass an empty viewer for a
// spectator view with every hole card hidden.
func ViewFor(r *game.Room, viewerID string) View {
	v := View{
		ID:          r.ID,
		Name:        r.Name,
		Creator:     r.Creator,
		Status:      string(r.Status),
		SeatLimit:   r.SeatLimit,
		MinBet:      r.MinBet,
		MaxBet:      r.MaxBet,
		BuyIn:       r.BuyIn,
		Dealer:      r.Dealer,
		Phase:       game.PhaseIdle.String(),
		CurrentTurn: -1,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if h := r.Hand; h != nil {
		v.HandID = h.ID
		v.Phase = h.Phase.String()
		v.Dealer = h.Dealer
		v.Pot = h.Pot
		v.CurrentBet = h.CurrentBet
		v.MinRaise = h.MinRaise
		v.CurrentTurn = h.CurrentTurn
		for _, c := range h.Community {
			v.Community = append(v.Community, c.String())
		}
		for _, p := range game.SidePots(r) {
			v.Pots = append(v.Pots, PotView{Amount: p.Amount, Eligible: p.Eligible})
		}
	}
	v.Seats = make([]SeatView, len(r.Seats))
	for i, s := range r.Seats {
		sv := SeatView{
			PlayerID:     s.PlayerID,
			Username:     s.Username,
			Chips:        s.Chips,
			Bet:          s.Bet,
			TotalBet:     s.TotalBet,
			Folded:       s.Folded,
			AllIn:        s.AllIn,
			Connected:    s.Connected,
			IsDealer:     s.IsDealer,
			IsSmallBlind: s.IsSmallBlind,
			IsBigBlind:   s.IsBigBlind,
		}
		atShowdown := r.Hand != nil && r.Hand.Phase == game.PhaseShowdown
		for _, c := range s.Hole {
			if s.PlayerID == viewerID || (atShowdown && !s.Folded) {
				sv.Cards = append(sv.Cards, c.String())
			} else {
				sv.Cards = append(sv.Cards, HiddenCard)
			}
		}
		v.Seats[i] = sv
	}
	return v
}
