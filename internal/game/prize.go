package game

import (
	"errors"
	"fmt"
	"slices"
)

// PrizeTable maps ladder positions to prize amounts. Positions marked
// fireproof keep their amount after a later wrong or late answer.
type PrizeTable struct {
	amounts   []int64
	fireproof []int
}

// PrizeLevel describes a single rung of the prize table
type PrizeLevel struct {
	Level     int
	Amount    int64
	Fireproof bool
}

// DefaultPrizeTable is the classic fifteen question ladder
var DefaultPrizeTable = MustPrizeTable(
	[]int64{100, 200, 300, 500, 1000, 2000, 4000, 8000, 16000, 32000, 64000, 125000, 250000, 500000, 1000000},
	4, 9, 14,
)

// NewPrizeTable builds a prize table. Amounts must be strictly increasing and
// fireproof levels must lie within the table.
func NewPrizeTable(amounts []int64, fireproof ...int) (PrizeTable, error) {
	if len(amounts) == 0 {
		return PrizeTable{}, errors.New("prize table must have at least one level")
	}
	for i, amount := range amounts {
		if amount <= 0 {
			return PrizeTable{}, fmt.Errorf("prize at level %d must be positive", i)
		}
		if i > 0 && amount <= amounts[i-1] {
			return PrizeTable{}, fmt.Errorf("prize at level %d must exceed level %d", i, i-1)
		}
	}

	levels := slices.Clone(fireproof)
	slices.Sort(levels)
	levels = slices.Compact(levels)
	for _, level := range levels {
		if level < 0 || level >= len(amounts) {
			return PrizeTable{}, fmt.Errorf("fireproof level %d out of range", level)
		}
	}

	return PrizeTable{amounts: slices.Clone(amounts), fireproof: levels}, nil
}

// MustPrizeTable is NewPrizeTable that panics on error
func MustPrizeTable(amounts []int64, fireproof ...int) PrizeTable {
	table, err := NewPrizeTable(amounts, fireproof...)
	if err != nil {
		panic(err)
	}
	return table
}

// Len returns the ladder size
func (p PrizeTable) Len() int {
	return len(p.amounts)
}

// Amount returns the prize at level, or 0 outside the table
func (p PrizeTable) Amount(level int) int64 {
	if level < 0 || level >= len(p.amounts) {
		return 0
	}
	return p.amounts[level]
}

// Top returns the prize for answering every question
func (p PrizeTable) Top() int64 {
	return p.Amount(len(p.amounts) - 1)
}

// IsFireproof reports whether level is a checkpoint
func (p PrizeTable) IsFireproof(level int) bool {
	_, found := slices.BinarySearch(p.fireproof, level)
	return found
}

// FireproofPrize returns the amount of the highest fireproof level at or
// below answeredLevel, or 0 when there is none.
func (p PrizeTable) FireproofPrize(answeredLevel int) int64 {
	for i := len(p.fireproof) - 1; i >= 0; i-- {
		if p.fireproof[i] <= answeredLevel {
			return p.amounts[p.fireproof[i]]
		}
	}
	return 0
}

// Levels lists every rung of the table
func (p PrizeTable) Levels() []PrizeLevel {
	levels := make([]PrizeLevel, len(p.amounts))
	for i, amount := range p.amounts {
		levels[i] = PrizeLevel{Level: i, Amount: amount, Fireproof: p.IsFireproof(i)}
	}
	return levels
}
