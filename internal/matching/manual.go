package matching

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SelectedMovedItem addresses one leftover moved row and the quantity the
// operator wants to carve off it. The quantity does not have to be the row's
// full remainder.
type SelectedMovedItem struct {
	Index    int             `json:"index"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ManualMatch resolves part of a leftover unit by operator decision. The
// contract applied to every selected row is taken from the first selected
// note fragment; all selected fragments are consumed unconditionally, since
// note text is advisory once the operator has decided. The call is atomic:
// either every selection validates and is applied, or nothing changes.
func (u *Unit) ManualMatch(items []SelectedMovedItem, noteIndices []int) ([]MatchedRecord, error) {
	if len(items) == 0 || len(noteIndices) == 0 {
		return nil, ErrEmptySelection
	}

	notePos := make(map[int]int, len(u.Notes))
	for i, f := range u.Notes {
		notePos[f.Index] = i
	}
	selectedNotes := make(map[int]bool, len(noteIndices))
	for _, idx := range noteIndices {
		if _, ok := notePos[idx]; !ok {
			return nil, fmt.Errorf("%w: note index %d", ErrStaleIndex, idx)
		}
		selectedNotes[idx] = true
	}
	contract := u.Notes[notePos[noteIndices[0]]].Contract

	rowPos := make(map[int]int, len(u.Moved))
	for i, r := range u.Moved {
		rowPos[r.Index] = i
	}
	carve := make(map[int]decimal.Decimal, len(items))
	for _, item := range items {
		pos, ok := rowPos[item.Index]
		if !ok {
			return nil, fmt.Errorf("%w: moved index %d", ErrStaleIndex, item.Index)
		}
		if !item.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: moved index %d", ErrInvalidQuantity, item.Index)
		}
		total := carve[item.Index].Add(item.Quantity)
		if total.GreaterThan(u.Moved[pos].Moved) {
			return nil, fmt.Errorf("%w: moved index %d has %s remaining", ErrQuantityExceeded, item.Index, u.Moved[pos].Moved)
		}
		carve[item.Index] = total
	}

	matched := make([]MatchedRecord, 0, len(items))
	for _, item := range items {
		pos := rowPos[item.Index]
		matched = append(matched, u.record(u.Moved[pos], contract, item.Quantity, SourceManual))
	}

	remaining := u.Moved[:0]
	for _, row := range u.Moved {
		carved, ok := carve[row.Index]
		if !ok {
			remaining = append(remaining, row)
			continue
		}
		if carved.Equal(row.Moved) {
			continue // fully consumed
		}
		row.Moved = row.Moved.Sub(carved)
		remaining = append(remaining, row)
	}
	u.Moved = remaining

	keptNotes := u.Notes[:0]
	for _, f := range u.Notes {
		if !selectedNotes[f.Index] {
			keptNotes = append(keptNotes, f)
		}
	}
	u.Notes = keptNotes

	return matched, nil
}
