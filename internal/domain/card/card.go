package card

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Sentinel decode errors; Parse wraps them with the offending token so
// callers can match with errors.Is while logs keep the detail.
var (
	ErrMalformedToken = errors.New("malformed card token")
	ErrUnknownSuit    = errors.New("unknown suit")
	ErrUnknownRank    = errors.New("unknown rank")
)

// Suit is one of the four French suits.
type Suit uint8

const (
	Clubs Suit = iota
	Hearts
	Diamonds
	Spades
)

var suitNames = [...]string{"Clubs", "Hearts", "Diamonds", "Spades"}

func (s Suit) String() string {
	if int(s) < len(suitNames) {
		return suitNames[s]
	}
	return fmt.Sprintf("Suit(%d)", uint8(s))
}

// Rank is a card rank, Two through Ace.
type Rank uint8

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

var rankNames = map[Rank]string{
	Two: "2", Three: "3", Four: "4", Five: "5", Six: "6", Seven: "7",
	Eight: "8", Nine: "9", Ten: "10", Jack: "J", Queen: "Q", King: "K", Ace: "A",
}

func (r Rank) String() string {
	if s, ok := rankNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Rank(%d)", uint8(r))
}

// Card is an immutable (rank, suit) pair with value equality.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// String renders the wire form, "<Suit> <Rank>".
func (c Card) String() string {
	return c.Suit.String() + " " + c.Rank.String()
}

var suits = map[string]Suit{
	"Clubs":    Clubs,
	"Hearts":   Hearts,
	"Diamonds": Diamonds,
	"Spades":   Spades,
}

var ranks = map[string]Rank{
	"2": Two, "3": Three, "4": Four, "5": Five, "6": Six, "7": Seven,
	"8": Eight, "9": Nine, "10": Ten, "J": Jack, "Q": Queen, "K": King, "A": Ace,
}

// Parse decodes a single wire token of the form "<Suit> <Rank>", suit first,
// matching the form-field naming used by the play page. Matching is exact and
// case-sensitive. Unrecognized input is an ordinary error, never a panic.
func Parse(token string) (Card, error) {
	fields := strings.Split(token, " ")
	if len(fields) != 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrMalformedToken, token)
	}
	suit, ok := suits[fields[0]]
	if !ok {
		return Card{}, fmt.Errorf("%w: %q", ErrUnknownSuit, fields[0])
	}
	rank, ok := ranks[fields[1]]
	if !ok {
		return Card{}, fmt.Errorf("%w: %q", ErrUnknownRank, fields[1])
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// ParseTokens decodes an ordered token list, preserving input order.
// The first bad token aborts the whole decode; no partial hand is returned.
func ParseTokens(tokens []string) ([]Card, error) {
	hand := make([]Card, 0, len(tokens))
	for _, tok := range tokens {
		c, err := Parse(tok)
		if err != nil {
			return nil, err
		}
		hand = append(hand, c)
	}
	return hand, nil
}

// ParseHand decodes a submitted form into a hand. Card identity is carried in
// the field names (one checkbox per selected card); values are ignored. An
// empty form is an empty hand, which is how a pass is submitted.
//
// Go map iteration makes the resulting order indeterminate, so consumers must
// treat the hand as an unordered set. The engine does.
func ParseHand(form url.Values) ([]Card, error) {
	hand := make([]Card, 0, len(form))
	for name := range form {
		c, err := Parse(name)
		if err != nil {
			return nil, err
		}
		hand = append(hand, c)
	}
	return hand, nil
}
