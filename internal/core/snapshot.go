package core

import "github.com/shopspring/decimal"

// Snapshot is the read-only household state handed to the engine for one
// derivation pass.
type Snapshot struct {
	Transactions   []Transaction   `json:"transactions"`
	RecurringItems []RecurringItem `json:"fixedItems"`
	Cards          []Card          `json:"cards"`
	Members        []FamilyMember  `json:"members"`
	Categories     []Category      `json:"categories"`
	Goals          []Goal          `json:"goals"`
}

// FindCard looks up a card by id.
func (s Snapshot) FindCard(id CardID) (Card, bool) {
	return findCard(s.Cards, id)
}

// FindMember looks up a member by id.
func (s Snapshot) FindMember(id MemberID) (FamilyMember, bool) {
	for _, m := range s.Members {
		if m.ID == id {
			return m, true
		}
	}
	return FamilyMember{}, false
}

// FindCategory looks up a category by its label.
func (s Snapshot) FindCategory(name string) (Category, bool) {
	for _, c := range s.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

func findCard(cards []Card, id CardID) (Card, bool) {
	for _, c := range cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// FindCard looks up a card by id in a plain card list.
func FindCard(cards []Card, id CardID) (Card, bool) {
	return findCard(cards, id)
}

// DefaultCategories is the category set of a brand-new household.
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat_1", Name: "Moradia", Color: "#3b82f6"},
		{ID: "cat_2", Name: "Alimentação", Color: "#10b981"},
		{ID: "cat_3", Name: "Transporte", Color: "#f59e0b"},
		{ID: "cat_4", Name: "Lazer", Color: "#8b5cf6"},
		{ID: "cat_5", Name: "Saúde", Color: "#ef4444"},
		{ID: "cat_6", Name: "Educação", Color: "#06b6d4"},
		{ID: "cat_7", Name: "Salário", Color: "#22c55e"},
		{ID: "cat_8", Name: "Investimento", Color: "#ec4899"},
		{ID: "cat_9", Name: "Outros", Color: "#64748b"},
	}
}

// DefaultSnapshot is the state of a household that has recorded nothing yet.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Transactions:   []Transaction{},
		RecurringItems: []RecurringItem{},
		Cards:          []Card{},
		Members:        []FamilyMember{{ID: "1", Name: "Você", Role: "Admin", Salary: decimal.Zero}},
		Categories:     DefaultCategories(),
		Goals:          []Goal{},
	}
}
