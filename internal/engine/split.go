package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"orcamento/internal/core"
)

// SplitMismatchError reports a manual split whose entries do not add up to
// the amount being split.
type SplitMismatchError struct {
	Sum   decimal.Decimal
	Total decimal.Decimal
}

func (e *SplitMismatchError) Error() string {
	return fmt.Sprintf("split entries sum to %s but the total is %s", e.Sum.StringFixed(2), e.Total.StringFixed(2))
}

// SplitEqually divides total across members rounding each share down to
// cents. Whatever the rounding leaves over goes to the first member, so the
// entries always add up to total. Input order is preserved. No members
// yields no entries.
func SplitEqually(total decimal.Decimal, members []core.MemberID) []core.SplitEntry {
	if len(members) == 0 {
		return nil
	}
	n := decimal.NewFromInt(int64(len(members)))
	share := total.Div(n).RoundFloor(2)
	return withRemainderOnFirst(total, share, members)
}

// DistributeRounded is the auto-distribution used when a shared entry is
// first opened: each share is rounded to the nearest cent and the difference,
// positive or negative, is absorbed by the first member.
func DistributeRounded(total decimal.Decimal, members []core.MemberID) []core.SplitEntry {
	if len(members) == 0 {
		return nil
	}
	n := decimal.NewFromInt(int64(len(members)))
	share := total.Div(n).Round(2)
	return withRemainderOnFirst(total, share, members)
}

func withRemainderOnFirst(total, share decimal.Decimal, members []core.MemberID) []core.SplitEntry {
	entries := make([]core.SplitEntry, len(members))
	for i, m := range members {
		entries[i] = core.SplitEntry{MemberID: m, Amount: share}
	}
	remainder := total.Sub(share.Mul(decimal.NewFromInt(int64(len(members)))))
	entries[0].Amount = entries[0].Amount.Add(remainder)
	return entries
}

// CheckSplit returns a *SplitMismatchError when the entries differ from total
// by more than core.Tolerance. It never adjusts the entries.
func CheckSplit(entries []core.SplitEntry, total decimal.Decimal) error {
	sum := core.SumSplit(entries)
	if sum.Sub(total).Abs().GreaterThan(core.Tolerance) {
		return &SplitMismatchError{Sum: sum, Total: total}
	}
	return nil
}

// ValidateSplit reports whether the entries add up to total within tolerance.
func ValidateSplit(entries []core.SplitEntry, total decimal.Decimal) bool {
	return CheckSplit(entries, total) == nil
}
