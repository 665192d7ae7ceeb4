package matching

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// fragmentPattern matches one CONTRACT-QUANTITY token: the contract code has
// the same shape as a shipment-request id, followed by the claimed quantity.
var fragmentPattern = regexp.MustCompile(`([А-Я]{2}-\d{8})-(\d+)`)

// ParseFragments extracts every (contract, quantity) pair embedded in the
// free-text note of a shipment request. A note with no recognizable tokens
// yields an empty slice, which is a valid outcome, not an error. Repeated
// pairs are kept as-is: they may describe genuinely distinct commercial
// items, so nothing is deduplicated.
func ParseFragments(note string) []ContractFragment {
	matches := fragmentPattern.FindAllStringSubmatch(note, -1)
	if len(matches) == 0 {
		return nil
	}
	fragments := make([]ContractFragment, 0, len(matches))
	for i, m := range matches {
		qty, err := decimal.NewFromString(m[2])
		if err != nil {
			continue
		}
		fragments = append(fragments, ContractFragment{
			Index:    i,
			Contract: m[1],
			Quantity: qty,
		})
	}
	return fragments
}
