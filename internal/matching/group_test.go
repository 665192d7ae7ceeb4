package matching

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBuildUnits(t *testing.T) {
	ordered := []OrderedRow{
		{RequestID: "ЕД-00000001", Product: "Пшениця еліта 2025", Ordered: dec(1000), Note: "КП-00001111-700 КП-00002222-300", Date: "01.02.2026"},
		{RequestID: "ЕД-00000001", Product: "Ячмінь 1Р 2025", Ordered: dec(200), Note: ""},
		{RequestID: "", Product: "Без заявки", Ordered: dec(50)},
	}
	moved := []MovedRow{
		{RequestID: "ЕД-00000001", Product: "Пшениця еліта 2025", PartySign: "П-1", Moved: dec(700)},
		{RequestID: "ЕД-00000001", Product: "Пшениця еліта 2025", PartySign: "П-2", Moved: dec(300)},
		{RequestID: "ЕД-00000001", Product: "Ячмінь 1Р 2025", PartySign: "П-3", Moved: dec(200)},
		{RequestID: "ЕД-00000002", Product: "Соя 2025", PartySign: "П-4", Moved: dec(80)},
	}

	units := BuildUnits(ordered, moved)
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2", len(units))
	}

	u := units[0]
	if u.RequestID != "ЕД-00000001" {
		t.Fatalf("unit 0 request = %q", u.RequestID)
	}
	if len(u.Moved) != 3 {
		t.Fatalf("unit 0 has %d moved rows, want 3", len(u.Moved))
	}
	// ordered quantity counts once per product, not per row
	if !u.TotalOrdered.Equal(dec(1200)) {
		t.Fatalf("total ordered = %s, want 1200", u.TotalOrdered)
	}
	if !u.TotalMoved.Equal(dec(1200)) {
		t.Fatalf("total moved = %s, want 1200", u.TotalMoved)
	}
	if len(u.Notes) != 2 {
		t.Fatalf("unit 0 has %d fragments, want 2", len(u.Notes))
	}
	for i, row := range u.Moved {
		if row.Index != i {
			t.Fatalf("surrogate index = %d, want %d", row.Index, i)
		}
	}

	// moved row with no matching order still joins, with zero ordered qty
	u2 := units[1]
	if u2.RequestID != "ЕД-00000002" {
		t.Fatalf("unit 1 request = %q", u2.RequestID)
	}
	if !u2.Moved[0].Ordered.IsZero() || u2.NoteText != "" {
		t.Fatalf("unmatched order side must stay empty: %+v", u2)
	}
	if u2.Moved[0].Index != 3 {
		t.Fatalf("surrogate indices are global, got %d", u2.Moved[0].Index)
	}
}
