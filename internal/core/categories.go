package core

import "github.com/shopspring/decimal"

// DefaultCategories is the built-in category table, identical to the seed
// the sqlite migrations apply. The memory backend starts from this so an
// unconfigured run can still classify and import.
func DefaultCategories() []Category {
	mk := func(id, name, icon, color, budget string, typ CategoryType, order int) Category {
		return Category{
			ID:            "c0a80001-0000-4000-8000-00000000000" + id,
			Name:          name,
			Icon:          icon,
			Color:         color,
			MonthlyBudget: decimal.RequireFromString(budget),
			Type:          typ,
			SortOrder:     order,
		}
	}
	return []Category{
		mk("1", "Miete", "🏠", "#EF4444", "900", CategoryExpense, 1),
		mk("2", "Lebensmittel", "🛒", "#F59E0B", "350", CategoryExpense, 2),
		mk("3", "Klamotten", "👕", "#8B5CF6", "100", CategoryExpense, 3),
		mk("4", "Transport", "🚆", "#3B82F6", "80", CategoryExpense, 4),
		mk("5", "Restaurants", "🍽️", "#EC4899", "150", CategoryExpense, 5),
		mk("6", "Abos & Subscriptions", "📺", "#06B6D4", "60", CategoryExpense, 6),
		mk("7", "Gesundheit", "💊", "#10B981", "50", CategoryExpense, 7),
		mk("8", "Entertainment", "🎮", "#F97316", "80", CategoryExpense, 8),
		mk("9", "Geschenke", "🎁", "#D946EF", "40", CategoryExpense, 9),
		mk("a", "Gehalt", "💰", "#22C55E", "0", CategoryIncome, 10),
		mk("b", "Freelance", "💼", "#14B8A6", "0", CategoryIncome, 11),
	}
}
