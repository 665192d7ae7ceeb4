package matching

import "github.com/shopspring/decimal"

// jsonNumber converts a decimal to a plain JSON number: an integer when the
// value has no fractional part, a float otherwise. Transport must never see
// the library's string encoding of decimals.
func jsonNumber(d decimal.Decimal) interface{} {
	if d.IsInteger() {
		return d.IntPart()
	}
	f, _ := d.Float64()
	return f
}

func movedRowView(row MovedRow) map[string]interface{} {
	return map[string]interface{}{
		"index":            row.Index,
		"request_id":       row.RequestID,
		"product":          row.Product,
		"party_sign":       row.PartySign,
		"line_of_business": row.LineOfBusiness,
		"date":             row.Date,
		"ordered_qty":      jsonNumber(row.Ordered),
		"moved_qty":        jsonNumber(row.Moved),
	}
}

// noteView keeps the report's own column names so the operator UI shows the
// fragments under the same labels as the source spreadsheet.
func noteView(f ContractFragment) map[string]interface{} {
	return map[string]interface{}{
		"index":                   f.Index,
		"Договор":                 f.Contract,
		"Количество_в_примечании": jsonNumber(f.Quantity),
	}
}

// View projects the unit to its transport form. Row and fragment entries
// echo their surrogate index so manual-match calls can reference them across
// round-trips.
func (u *Unit) View() map[string]interface{} {
	moved := make([]map[string]interface{}, 0, len(u.Moved))
	for _, row := range u.Moved {
		moved = append(moved, movedRowView(row))
	}
	notes := make([]map[string]interface{}, 0, len(u.Notes))
	for _, f := range u.Notes {
		notes = append(notes, noteView(f))
	}
	return map[string]interface{}{
		"product":       u.Product,
		"note_text":     u.NoteText,
		"total_ordered": jsonNumber(u.TotalOrdered),
		"total_moved":   jsonNumber(u.TotalMoved),
		"current_moved": moved,
		"current_notes": notes,
	}
}

// LeftoversView projects the whole leftover set keyed by request id.
func LeftoversView(leftovers map[string]*Unit) map[string]interface{} {
	out := make(map[string]interface{}, len(leftovers))
	for id, u := range leftovers {
		out[id] = u.View()
	}
	return out
}

// MatchedView projects the accumulated matched list.
func MatchedView(matched []MatchedRecord) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(matched))
	for _, m := range matched {
		out = append(out, map[string]interface{}{
			"request_id":       m.RequestID,
			"product":          m.Product,
			"party_sign":       m.PartySign,
			"contract_id":      m.Contract,
			"quantity":         jsonNumber(m.Quantity),
			"line_of_business": m.LineOfBusiness,
			"date":             m.Date,
			"source":           m.Source,
		})
	}
	return out
}

// UnmatchedView groups whatever remains unresolved by request id, split into
// the two sides the operator still has to reconcile.
func UnmatchedView(leftovers map[string]*Unit) map[string]interface{} {
	out := make(map[string]interface{}, len(leftovers))
	for id, u := range leftovers {
		moved := make([]map[string]interface{}, 0, len(u.Moved))
		for _, row := range u.Moved {
			moved = append(moved, movedRowView(row))
		}
		notes := make([]map[string]interface{}, 0, len(u.Notes))
		for _, f := range u.Notes {
			notes = append(notes, noteView(f))
		}
		out[id] = map[string]interface{}{
			"unmatched_moved": moved,
			"unmatched_notes": notes,
		}
	}
	return out
}
