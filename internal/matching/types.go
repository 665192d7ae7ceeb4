package matching

import "github.com/shopspring/decimal"

// Source labels stamped on every matched record.
const (
	SourceAutoSingleContract = "auto-single-contract"
	SourceAutoUniqueQuantity = "auto-unique-quantity"
	SourceAutoSumMatch       = "auto-sum-match"
	SourceManual             = "manual"
)

// OrderedRow is one normalized row of the "Заказано" report.
type OrderedRow struct {
	RequestID string
	Product   string
	Date      string
	Ordered   decimal.Decimal
	Note      string
}

// MovedRow is one normalized row of the "Перемещено" report. Index is a
// stable surrogate assigned during the join; it survives projection
// round-trips so manual-match calls can address the row unambiguously.
type MovedRow struct {
	Index          int
	RequestID      string
	Product        string
	PartySign      string
	LineOfBusiness string
	Date           string
	Ordered        decimal.Decimal
	Moved          decimal.Decimal
}

// ContractFragment is a single (contract, quantity) pair decoded from the
// free-text note of a shipment request.
type ContractFragment struct {
	Index    int
	Contract string
	Quantity decimal.Decimal
}

// Unit is the per-request working set while matching: the moved rows still
// unattributed and the note fragments still unconsumed.
type Unit struct {
	RequestID    string
	Product      string
	NoteText     string
	TotalOrdered decimal.Decimal
	TotalMoved   decimal.Decimal
	Moved        []MovedRow
	Notes        []ContractFragment
}

// MatchedRecord is one finalized attribution of moved quantity to a contract.
type MatchedRecord struct {
	RequestID      string          `json:"request_id"`
	Product        string          `json:"product"`
	PartySign      string          `json:"party_sign"`
	Contract       string          `json:"contract_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	LineOfBusiness string          `json:"line_of_business"`
	Date           string          `json:"date"`
	Source         string          `json:"source"`
}

// Exhausted reports whether the unit has nothing left to reconcile on at
// least one side. Such a unit is dropped from the leftover set.
func (u *Unit) Exhausted() bool {
	return len(u.Moved) == 0 || len(u.Notes) == 0
}

func (u *Unit) record(row MovedRow, contract string, qty decimal.Decimal, source string) MatchedRecord {
	return MatchedRecord{
		RequestID:      u.RequestID,
		Product:        row.Product,
		PartySign:      row.PartySign,
		Contract:       contract,
		Quantity:       qty,
		LineOfBusiness: row.LineOfBusiness,
		Date:           row.Date,
		Source:         source,
	}
}
