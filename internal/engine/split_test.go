package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"orcamento/internal/core"
)

func amounts(entries []core.SplitEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Amount.StringFixed(2)
	}
	return out
}

func TestSplitEqually(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		members []core.MemberID
		want    []string
	}{
		{"remainder on first", "100", []core.MemberID{"a", "b", "c"}, []string{"33.34", "33.33", "33.33"}},
		{"exact division", "10", []core.MemberID{"a", "b", "c", "d"}, []string{"2.50", "2.50", "2.50", "2.50"}},
		{"cents only", "0.05", []core.MemberID{"a", "b", "c"}, []string{"0.03", "0.01", "0.01"}},
		{"single member", "42.42", []core.MemberID{"a"}, []string{"42.42"}},
		{"zero total", "0", []core.MemberID{"a", "b"}, []string{"0.00", "0.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitEqually(dec(tt.total), tt.members)
			if len(got) != len(tt.members) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.members))
			}
			for i, e := range got {
				if e.MemberID != tt.members[i] {
					t.Errorf("entry %d member = %s, want %s", i, e.MemberID, tt.members[i])
				}
			}
			gotAmounts := amounts(got)
			for i := range tt.want {
				if gotAmounts[i] != tt.want[i] {
					t.Errorf("amounts = %v, want %v", gotAmounts, tt.want)
					break
				}
			}
		})
	}
}

func TestSplitEqually_NoMembers(t *testing.T) {
	if got := SplitEqually(dec("10"), nil); len(got) != 0 {
		t.Fatalf("expected no entries, got %v", got)
	}
}

func TestSplitEqually_SumsToTotalAndValidates(t *testing.T) {
	members := []core.MemberID{"a", "b", "c", "d", "e", "f", "g"}
	for cents := int64(0); cents <= 5000; cents += 37 {
		total := decimal.New(cents, -2)
		for n := 1; n <= len(members); n++ {
			entries := SplitEqually(total, members[:n])
			if !core.SumSplit(entries).Equal(total) {
				t.Fatalf("total %s over %d members sums to %s", total, n, core.SumSplit(entries))
			}
			for _, e := range entries {
				if e.Amount.IsNegative() {
					t.Fatalf("total %s over %d members has negative entry %s", total, n, e.Amount)
				}
			}
			if !ValidateSplit(entries, total) {
				t.Fatalf("equal split of %s over %d members does not validate", total, n)
			}
		}
	}
}

func TestDistributeRounded(t *testing.T) {
	got := amounts(DistributeRounded(dec("200"), []core.MemberID{"a", "b", "c"}))
	want := []string{"66.66", "66.67", "66.67"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DistributeRounded = %v, want %v", got, want)
		}
	}
	if len(DistributeRounded(dec("1"), nil)) != 0 {
		t.Fatal("expected no entries without members")
	}
}

func TestCheckSplit(t *testing.T) {
	entries := []core.SplitEntry{
		{MemberID: "a", Amount: dec("30")},
		{MemberID: "b", Amount: dec("60")},
	}

	tests := []struct {
		name  string
		total string
		ok    bool
	}{
		{"exact", "90", true},
		{"within tolerance above", "90.10", true},
		{"within tolerance below", "89.90", true},
		{"just over tolerance", "90.11", false},
		{"far off", "100", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSplit(entries, dec(tt.total))
			if tt.ok {
				if err != nil {
					t.Fatalf("CheckSplit() = %v, want nil", err)
				}
				return
			}
			var mismatch *SplitMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("CheckSplit() = %v, want *SplitMismatchError", err)
			}
			if !mismatch.Sum.Equal(dec("90")) || !mismatch.Total.Equal(dec(tt.total)) {
				t.Errorf("mismatch = %+v", mismatch)
			}
			if ValidateSplit(entries, dec(tt.total)) {
				t.Error("ValidateSplit() = true, want false")
			}
		})
	}
}

func TestSplitMismatchError_Message(t *testing.T) {
	err := &SplitMismatchError{Sum: dec("80"), Total: dec("90")}
	want := "split entries sum to 80.00 but the total is 90.00"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
