package matching

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseFragments(t *testing.T) {
	tests := []struct {
		name string
		note string
		want []ContractFragment
	}{
		{
			name: "empty note",
			note: "",
			want: nil,
		},
		{
			name: "no tokens",
			note: "відвантажити до кінця тижня",
			want: nil,
		},
		{
			name: "single token",
			note: "КП-00001234-500",
			want: []ContractFragment{
				{Index: 0, Contract: "КП-00001234", Quantity: decimal.NewFromInt(500)},
			},
		},
		{
			name: "several tokens with surrounding text",
			note: "розподіл: КП-00001234-500, КП-00005678-250 (узгоджено)",
			want: []ContractFragment{
				{Index: 0, Contract: "КП-00001234", Quantity: decimal.NewFromInt(500)},
				{Index: 1, Contract: "КП-00005678", Quantity: decimal.NewFromInt(250)},
			},
		},
		{
			name: "repeated pair is kept twice",
			note: "КП-00001234-100 КП-00001234-100",
			want: []ContractFragment{
				{Index: 0, Contract: "КП-00001234", Quantity: decimal.NewFromInt(100)},
				{Index: 1, Contract: "КП-00001234", Quantity: decimal.NewFromInt(100)},
			},
		},
		{
			name: "lowercase prefix is not a contract",
			note: "кп-00001234-500",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFragments(tt.note)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d fragments, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].Index != tt.want[i].Index || got[i].Contract != tt.want[i].Contract {
					t.Fatalf("fragment %d = %+v, want %+v", i, got[i], tt.want[i])
				}
				if !got[i].Quantity.Equal(tt.want[i].Quantity) {
					t.Fatalf("fragment %d quantity = %s, want %s", i, got[i].Quantity, tt.want[i].Quantity)
				}
			}
		})
	}
}
