package matching

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BuildUnits joins the two normalized tables on (request id, product) and
// partitions the result into one reconciliation unit per shipment request.
//
// The join is effectively an outer join followed by the normalizer's
// guarantees: an ordered row with no movement carries no reconcilable
// quantity and drops out, while a moved row with no matching order stays,
// with zero ordered quantity and an empty note. Moved rows whose request id
// could not be extracted are excluded as well.
//
// Surrogate indices are assigned here, sequentially across the whole moved
// table, and never reused afterwards.
func BuildUnits(ordered []OrderedRow, moved []MovedRow) []*Unit {
	type orderKey struct{ request, product string }
	orders := make(map[orderKey]*OrderedRow, len(ordered))
	for i := range ordered {
		o := &ordered[i]
		if o.RequestID == "" {
			continue
		}
		key := orderKey{o.RequestID, o.Product}
		if _, seen := orders[key]; !seen {
			orders[key] = o
		}
	}

	units := make(map[string]*Unit)
	var requests []string
	for i := range moved {
		row := moved[i]
		if row.RequestID == "" {
			continue
		}
		row.Index = i
		if o, ok := orders[orderKey{row.RequestID, row.Product}]; ok {
			row.Ordered = o.Ordered
		}

		u, ok := units[row.RequestID]
		if !ok {
			u = &Unit{RequestID: row.RequestID, Product: row.Product}
			units[row.RequestID] = u
			requests = append(requests, row.RequestID)
		}
		if u.NoteText == "" {
			if o, ok := orders[orderKey{row.RequestID, row.Product}]; ok {
				u.NoteText = o.Note
			}
		}
		u.Moved = append(u.Moved, row)
		u.TotalMoved = u.TotalMoved.Add(row.Moved)
	}

	sort.Strings(requests)
	out := make([]*Unit, 0, len(requests))
	for _, id := range requests {
		u := units[id]
		u.TotalOrdered = totalOrdered(u.Moved)
		u.Notes = ParseFragments(u.NoteText)
		out = append(out, u)
	}
	return out
}

// totalOrdered sums the ordered quantity once per distinct product in the
// group. The ordered quantity is a property of the request/product pair and
// repeats on every row of that product, so first value wins, never summed
// per row.
func totalOrdered(rows []MovedRow) decimal.Decimal {
	total := decimal.Zero
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if seen[r.Product] {
			continue
		}
		seen[r.Product] = true
		total = total.Add(r.Ordered)
	}
	return total
}
