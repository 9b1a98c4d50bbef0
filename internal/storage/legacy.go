package storage

import (
	"orcamento/internal/core"
)

// upgradeSnapshot fills in the fields older snapshot shapes did not have and
// returns the names of the upgrades it applied.
func upgradeSnapshot(s *core.Snapshot, today core.Date) []string {
	var applied []string

	if s.Transactions == nil {
		s.Transactions = []core.Transaction{}
	}
	if s.RecurringItems == nil {
		s.RecurringItems = []core.RecurringItem{}
	}
	if s.Cards == nil {
		s.Cards = []core.Card{}
	}
	if s.Members == nil {
		s.Members = core.DefaultSnapshot().Members
		applied = append(applied, "default_member")
	}
	if s.Categories == nil {
		s.Categories = core.DefaultCategories()
		applied = append(applied, "default_categories")
	}
	if s.Goals == nil {
		s.Goals = []core.Goal{}
		applied = append(applied, "empty_goals")
	}

	seeded := false
	for i := range s.Cards {
		if len(s.Cards[i].LimitHistory) == 0 {
			s.Cards[i].LimitHistory = []core.LimitChange{{Date: today, Amount: s.Cards[i].Limit}}
			seeded = true
		}
	}
	if seeded {
		applied = append(applied, "card_limit_history")
	}

	owned := false
	for i := range s.Goals {
		if s.Goals[i].OwnerID == "" {
			s.Goals[i].OwnerID = core.FamilyOwner
			owned = true
		}
	}
	if owned {
		applied = append(applied, "goal_owner")
	}

	return applied
}
