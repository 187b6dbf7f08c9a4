package game

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Symbol is a card face drawn from the fixed vocabulary below.
type Symbol string

const (
	SymbolLeaf   Symbol = "leaf"
	SymbolDaisy  Symbol = "daisy"
	SymbolFern   Symbol = "fern"
	SymbolCactus Symbol = "cactus"
	SymbolRose   Symbol = "rose"
	SymbolTulip  Symbol = "tulip"
	SymbolIvy    Symbol = "ivy"
	SymbolMoss   Symbol = "moss"
	SymbolPine   Symbol = "pine"
	SymbolClover Symbol = "clover"
	SymbolLily   Symbol = "lily"
	SymbolSage   Symbol = "sage"
)

// symbolVocabulary is the pool decks are sampled from, without replacement.
var symbolVocabulary = []Symbol{
	SymbolLeaf, SymbolDaisy, SymbolFern, SymbolCactus, SymbolRose, SymbolTulip,
	SymbolIvy, SymbolMoss, SymbolPine, SymbolClover, SymbolLily, SymbolSage,
}

type Card struct {
	ID     string `json:"id"`
	PairID string `json:"pairId"`
	Symbol Symbol `json:"symbolType"`
}

type Deck []Card

// GenerateDeck builds pairCount symbol pairs, assigns each card a unique id,
// and shuffles the result uniformly (Fisher-Yates over crypto/rand).
func GenerateDeck(pairCount int) (Deck, error) {
	if pairCount <= 0 || pairCount > len(symbolVocabulary) {
		return nil, fmt.Errorf("pair count must be between 1 and %d, got %d", len(symbolVocabulary), pairCount)
	}

	symbols, err := sampleSymbols(pairCount)
	if err != nil {
		return nil, fmt.Errorf("sample symbols: %w", err)
	}

	deck := make(Deck, 0, pairCount*2)
	for _, symbol := range symbols {
		pairID := uuid.NewString()
		for i := 0; i < 2; i++ {
			deck = append(deck, Card{
				ID:     uuid.NewString(),
				PairID: pairID,
				Symbol: symbol,
			})
		}
	}

	if err := shuffle(deck); err != nil {
		return nil, fmt.Errorf("shuffle deck: %w", err)
	}
	return deck, nil
}

// ValidateDeck checks that a client-submitted deck is structurally the kind
// of deck this server issues: exact size, unique card ids, every pairId on
// exactly two cards, matching symbols within a pair, and symbols drawn from
// the vocabulary. A trivially-solvable substitute deck fails here.
func ValidateDeck(deck Deck, pairCount int) error {
	if len(deck) != pairCount*2 {
		return fmt.Errorf("deck must have %d cards, got %d", pairCount*2, len(deck))
	}

	ids := make(map[string]bool, len(deck))
	pairSymbols := make(map[string]Symbol, pairCount)
	pairSeen := make(map[string]int, pairCount)

	for _, card := range deck {
		if card.ID == "" || card.PairID == "" {
			return fmt.Errorf("card has empty id or pairId")
		}
		if ids[card.ID] {
			return fmt.Errorf("duplicate card id %q", card.ID)
		}
		ids[card.ID] = true

		if !validSymbol(card.Symbol) {
			return fmt.Errorf("unknown symbol %q", card.Symbol)
		}

		if symbol, ok := pairSymbols[card.PairID]; ok {
			if symbol != card.Symbol {
				return fmt.Errorf("pair %q has mismatched symbols", card.PairID)
			}
		} else {
			pairSymbols[card.PairID] = card.Symbol
		}
		pairSeen[card.PairID]++
	}

	if len(pairSeen) != pairCount {
		return fmt.Errorf("deck must have %d pairs, got %d", pairCount, len(pairSeen))
	}
	for pairID, count := range pairSeen {
		if count != 2 {
			return fmt.Errorf("pair %q appears %d times, want 2", pairID, count)
		}
	}

	return nil
}

func validSymbol(s Symbol) bool {
	for _, symbol := range symbolVocabulary {
		if s == symbol {
			return true
		}
	}
	return false
}

// sampleSymbols picks pairCount distinct symbols from the vocabulary.
func sampleSymbols(pairCount int) ([]Symbol, error) {
	pool := make([]Symbol, len(symbolVocabulary))
	copy(pool, symbolVocabulary)

	if err := shuffle(pool); err != nil {
		return nil, err
	}
	return pool[:pairCount], nil
}

func shuffle[T any](items []T) error {
	for i := len(items) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := n.Int64()
		items[i], items[j] = items[j], items[i]
	}
	return nil
}
