package poker

import (
	"testing"

	"github.com/pokerroom/holdem/internal/randutil"
)

func TestDeckDealsAllFiftyTwo(t *testing.T) {
	t.Parallel()
	d := NewDeck(randutil.New(1))
	seen := make(map[Card]bool)
	for d.Remaining() > 0 {
		c, err := d.Deal()
		if err != nil {
			t.Fatal(err)
		}
		if seen[c] {
			t.Fatalf("duplicate card %v", c)
		}
		seen[c] = true
	}
	if len(seen) != 52 {
		t.Errorf("dealt %d cards", len(seen))
	}
}

func TestDeckDeterministicForSeed(t *testing.T) {
	t.Parallel()
	a := NewDeck(randutil.New(42))
	b := NewDeck(randutil.New(42))
	for a.Remaining() > 0 {
		ca, _ := a.Deal()
		cb, _ := b.Deal()
		if ca != cb {
			t.Fatalf("same seed diverged: %v vs %v", ca, cb)
		}
	}

	c := NewDeck(randutil.New(43))
	first, _ := NewDeck(randutil.New(42)).Deal()
	other, _ := c.Deal()
	if first == other {
		// One matching top card is possible but a fully matching deck is
		// not worth distinguishing here; just note the coincidence.
		t.Logf("different seeds share a top card: %v", first)
	}
}

func TestDeckUnderflow(t *testing.T) {
	t.Parallel()
	d := NewStackedDeck(MustParseCard("As"))
	if err := d.Burn(); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Deal(); err != ErrDeckEmpty {
		t.Errorf("err = %v, want ErrDeckEmpty", err)
	}
	if err := d.Burn(); err != ErrDeckEmpty {
		t.Errorf("burn err = %v, want ErrDeckEmpty", err)
	}
}
