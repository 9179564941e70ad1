package pusoy

import (
	"sort"

	"github.com/pusoydos/pusoy-backend/internal/domain/card"
)

// Pusoy Dos ordering: threes are low, twos are high, and within a rank the
// suit decides (clubs low, diamonds high).

var suitOrder = map[card.Suit]int{
	card.Clubs:    0,
	card.Spades:   1,
	card.Hearts:   2,
	card.Diamonds: 3,
}

func rankOrder(r card.Rank) int {
	if r == card.Two {
		return 12
	}
	return int(r) - 3
}

// order gives a total order over the deck; no two cards share a value.
func order(c card.Card) int {
	return rankOrder(c.Rank)*4 + suitOrder[c.Suit]
}

type comboKind int

const (
	comboSingle comboKind = iota + 1
	comboPair
	comboTriple
	comboFive
)

// Five-card hand categories, weakest first.
type fiveCategory int

const (
	fiveStraight fiveCategory = iota + 1
	fiveFlush
	fiveFullHouse
	fiveQuads
	fiveStraightFlush
)

// combo is a classified play. key is the order of the deciding card: the card
// itself for singles, the higher/highest card for pairs and triples, and for
// five-card hands the highest card of the deciding group (the triple in a
// full house, the quad in four-of-a-kind, the top card otherwise).
type combo struct {
	kind     comboKind
	category fiveCategory
	key      int
}

// classify validates that cards form a playable combination.
func classify(cards []card.Card) (combo, bool) {
	sorted := append([]card.Card(nil), cards...)
	sort.Slice(sorted, func(i, j int) bool { return order(sorted[i]) < order(sorted[j]) })

	switch len(sorted) {
	case 1:
		return combo{kind: comboSingle, key: order(sorted[0])}, true
	case 2:
		if sorted[0].Rank != sorted[1].Rank {
			return combo{}, false
		}
		return combo{kind: comboPair, key: order(sorted[1])}, true
	case 3:
		if sorted[0].Rank != sorted[1].Rank || sorted[1].Rank != sorted[2].Rank {
			return combo{}, false
		}
		return combo{kind: comboTriple, key: order(sorted[2])}, true
	case 5:
		return classifyFive(sorted)
	default:
		return combo{}, false
	}
}

func classifyFive(sorted []card.Card) (combo, bool) {
	flush := true
	for _, c := range sorted[1:] {
		if c.Suit != sorted[0].Suit {
			flush = false
			break
		}
	}

	straight := true
	for i := 1; i < 5; i++ {
		if rankOrder(sorted[i].Rank) != rankOrder(sorted[i-1].Rank)+1 {
			straight = false
			break
		}
	}

	counts := map[card.Rank]int{}
	for _, c := range sorted {
		counts[c.Rank]++
	}

	switch {
	case straight && flush:
		return combo{kind: comboFive, category: fiveStraightFlush, key: order(sorted[4])}, true
	case len(counts) == 2:
		for r, n := range counts {
			if n == 4 {
				return combo{kind: comboFive, category: fiveQuads, key: groupKey(sorted, r)}, true
			}
			if n == 3 {
				return combo{kind: comboFive, category: fiveFullHouse, key: groupKey(sorted, r)}, true
			}
		}
		return combo{}, false
	case flush:
		return combo{kind: comboFive, category: fiveFlush, key: order(sorted[4])}, true
	case straight:
		return combo{kind: comboFive, category: fiveStraight, key: order(sorted[4])}, true
	default:
		return combo{}, false
	}
}

// groupKey returns the order of the highest card of rank r in sorted input.
func groupKey(sorted []card.Card, r card.Rank) int {
	key := -1
	for _, c := range sorted {
		if c.Rank == r && order(c) > key {
			key = order(c)
		}
	}
	return key
}

// beats reports whether b outranks a. Only same-size combinations compete;
// among five-card hands a higher category always wins.
func beats(b, a combo) bool {
	if b.kind != a.kind {
		return false
	}
	if b.kind == comboFive && b.category != a.category {
		return b.category > a.category
	}
	return b.key > a.key
}
