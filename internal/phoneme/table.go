// Package phoneme holds the static phoneme alphabet and the kana-to-phoneme
// mora mapping shared by every feature conversion path.
//
// Both tables are built once and never mutated afterwards; Shared returns the
// process-wide instance so independent converters agree on symbol indices.
package phoneme

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownPhoneme is returned when a symbol is not part of the table.
var ErrUnknownPhoneme = errors.New("unknown phoneme")

// symbols is the fixed alphabet in index order. The order is the wire
// contract with the frame decoder: index 0 is always "pau".
var symbols = []string{
	"pau", "A", "E", "I", "N", "O", "U", "a", "b", "by",
	"ch", "cl", "d", "dy", "e", "f", "g", "gw", "gy", "h",
	"hy", "i", "j", "k", "kw", "ky", "m", "my", "n", "ny",
	"o", "p", "py", "r", "ry", "s", "sh", "t", "ts", "ty",
	"u", "v", "w", "y", "z",
}

// PauseIndex is the index of the "pau" (silence) phoneme.
const PauseIndex = 0

var moraTail = map[string]bool{
	"a": true, "i": true, "u": true, "e": true, "o": true, "N": true,
	"A": true, "I": true, "U": true, "E": true, "O": true,
	"cl": true, "pau": true,
}

var unvoicedMoraTail = map[string]bool{
	"A": true, "I": true, "U": true, "E": true, "O": true,
	"cl": true, "pau": true,
}

// Table is an immutable bijection between phoneme symbols and indices.
type Table struct {
	symbols []string
	index   map[string]int
}

// NewTable builds a fresh table over the fixed alphabet. Most callers should
// use Shared instead of constructing their own copy.
func NewTable() *Table {
	t := &Table{
		symbols: symbols,
		index:   make(map[string]int, len(symbols)),
	}
	for i, s := range symbols {
		t.index[s] = i
	}
	return t
}

var (
	sharedOnce  sync.Once
	sharedTable *Table
)

// Shared returns the lazily constructed process-wide table.
func Shared() *Table {
	sharedOnce.Do(func() {
		sharedTable = NewTable()
	})
	return sharedTable
}

// Index returns the index of symbol. "sil" is accepted as an alias for "pau".
func (t *Table) Index(symbol string) (int, error) {
	if symbol == "sil" {
		symbol = "pau"
	}
	idx, ok := t.index[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPhoneme, symbol)
	}
	return idx, nil
}

// Symbol is the reverse of Index.
func (t *Table) Symbol(idx int) (string, error) {
	if idx < 0 || idx >= len(t.symbols) {
		return "", fmt.Errorf("%w: index %d", ErrUnknownPhoneme, idx)
	}
	return t.symbols[idx], nil
}

// Len reports the alphabet size.
func (t *Table) Len() int { return len(t.symbols) }

// Symbols returns a copy of the alphabet in index order.
func (t *Table) Symbols() []string {
	return append([]string(nil), t.symbols...)
}

// OneHot returns a one-hot vector for symbol over the alphabet.
func (t *Table) OneHot(symbol string) ([]float32, error) {
	idx, err := t.Index(symbol)
	if err != nil {
		return nil, err
	}
	vec := make([]float32, len(t.symbols))
	vec[idx] = 1
	return vec, nil
}

// IsMoraTail reports whether symbol can close a mora (vowels, "N", "cl", "pau").
func IsMoraTail(symbol string) bool { return moraTail[symbol] }

// IsUnvoicedMoraTail reports whether symbol is an unvoiced mora tail.
func IsUnvoicedMoraTail(symbol string) bool { return unvoicedMoraTail[symbol] }
