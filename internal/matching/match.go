package matching

import (
	"log"

	"github.com/shopspring/decimal"
)

// AutoMatch runs the resolution tiers over one unit, consuming moved rows
// and note fragments in place and returning the attributions it is certain
// about. Whatever survives all tiers stays in the unit for manual
// resolution. Tiers only ever consume a row whole; partial carving is
// reserved for the manual protocol.
func AutoMatch(u *Unit) []MatchedRecord {
	var matched []MatchedRecord
	if u.Exhausted() {
		return matched
	}

	// Tier 1: the note names a single contract, so every movement of the
	// request belongs to it, whether or not the quantities line up.
	if contract, ok := singleContract(u.Notes); ok {
		for _, row := range u.Moved {
			matched = append(matched, u.record(row, contract, row.Moved, SourceAutoSingleContract))
		}
		u.Moved = nil
		u.Notes = nil
		return matched
	}

	// Tier 2: quantities unique on both sides pair up unambiguously.
	matched = append(matched, matchUniqueQuantities(u)...)
	if u.Exhausted() {
		return matched
	}

	// Tier 3: one remaining row absorbs all fragments when the sums agree,
	// or one remaining fragment absorbs all rows.
	if len(u.Moved) == 1 && sumFragments(u.Notes).Equal(u.Moved[0].Moved) {
		row := u.Moved[0]
		for _, f := range u.Notes {
			matched = append(matched, u.record(row, f.Contract, f.Quantity, SourceAutoSumMatch))
		}
		u.Moved = nil
		u.Notes = nil
		return matched
	}
	if len(u.Notes) == 1 && sumMoved(u.Moved).Equal(u.Notes[0].Quantity) {
		contract := u.Notes[0].Contract
		for _, row := range u.Moved {
			matched = append(matched, u.record(row, contract, row.Moved, SourceAutoSumMatch))
		}
		u.Moved = nil
		u.Notes = nil
	}
	return matched
}

// AutoMatchAll applies AutoMatch to every unit and splits the outcome into
// the accumulated matched list and the leftover set keyed by request id. A
// failure inside one unit never aborts the batch: the unit simply stays
// unresolved and falls through to manual matching.
func AutoMatchAll(units []*Unit) ([]MatchedRecord, map[string]*Unit) {
	matched := make([]MatchedRecord, 0)
	leftovers := make(map[string]*Unit)
	for _, u := range units {
		records := safeAutoMatch(u)
		matched = append(matched, records...)
		if !u.Exhausted() {
			leftovers[u.RequestID] = u
		}
	}
	return matched, leftovers
}

func safeAutoMatch(u *Unit) (records []MatchedRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("auto-match failed for request %s, leaving unit for manual resolution: %v", u.RequestID, r)
			records = nil
		}
	}()
	return AutoMatch(u)
}

// singleContract reports the sole distinct contract named by the fragments.
func singleContract(notes []ContractFragment) (string, bool) {
	if len(notes) == 0 {
		return "", false
	}
	contract := notes[0].Contract
	for _, f := range notes[1:] {
		if f.Contract != contract {
			return "", false
		}
	}
	return contract, true
}

// matchUniqueQuantities pairs moved rows with fragments for every quantity
// value occurring exactly once on both sides, removing both. No tie-break is
// needed: each such quantity has exactly one row and one fragment.
func matchUniqueQuantities(u *Unit) []MatchedRecord {
	movedByQty := make(map[string][]int)
	for i, row := range u.Moved {
		k := row.Moved.String()
		movedByQty[k] = append(movedByQty[k], i)
	}
	notesByQty := make(map[string][]int)
	for i, f := range u.Notes {
		k := f.Quantity.String()
		notesByQty[k] = append(notesByQty[k], i)
	}

	consumedRows := make(map[int]bool)
	consumedNotes := make(map[int]bool)
	var matched []MatchedRecord
	for i, row := range u.Moved {
		k := row.Moved.String()
		if len(movedByQty[k]) != 1 || len(notesByQty[k]) != 1 {
			continue
		}
		ni := notesByQty[k][0]
		matched = append(matched, u.record(row, u.Notes[ni].Contract, row.Moved, SourceAutoUniqueQuantity))
		consumedRows[i] = true
		consumedNotes[ni] = true
	}
	if len(matched) == 0 {
		return nil
	}

	remainingRows := u.Moved[:0]
	for i, row := range u.Moved {
		if !consumedRows[i] {
			remainingRows = append(remainingRows, row)
		}
	}
	u.Moved = remainingRows
	remainingNotes := u.Notes[:0]
	for i, f := range u.Notes {
		if !consumedNotes[i] {
			remainingNotes = append(remainingNotes, f)
		}
	}
	u.Notes = remainingNotes
	return matched
}

func sumFragments(notes []ContractFragment) decimal.Decimal {
	total := decimal.Zero
	for _, f := range notes {
		total = total.Add(f.Quantity)
	}
	return total
}

func sumMoved(rows []MovedRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Moved)
	}
	return total
}
