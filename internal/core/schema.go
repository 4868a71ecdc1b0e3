package core

import (
	"time"

	"bookkeeper/internal/repository"
)

// ExpenseSchema describes how expenses are stored.
func ExpenseSchema() repository.Schema[Expense] {
	return repository.Schema[Expense]{
		Name:  "Expense",
		PK:    func(e Expense) int64 { return e.PK },
		SetPK: func(e *Expense, pk int64) { e.PK = pk },
		Fields: []repository.Field[Expense]{
			{
				Name: "cost", Type: repository.Integer,
				Get: func(e Expense) any { return e.Cost },
				Set: func(e *Expense, v any) { e.Cost = v.(int64) },
			},
			{
				Name: "category", Type: repository.Integer, Nullable: true,
				Get: func(e Expense) any { return e.Category },
				Set: func(e *Expense, v any) { e.Category = v.(int64) },
			},
			{
				Name: "expense_date", Type: repository.Timestamp,
				Get: func(e Expense) any { return e.ExpenseDate },
				Set: func(e *Expense, v any) { e.ExpenseDate = v.(time.Time) },
			},
			{
				Name: "added_date", Type: repository.Timestamp,
				Get: func(e Expense) any { return e.AddedDate },
				Set: func(e *Expense, v any) { e.AddedDate = v.(time.Time) },
			},
			{
				Name: "comment", Type: repository.Text,
				Get: func(e Expense) any { return e.Comment },
				Set: func(e *Expense, v any) { e.Comment = v.(string) },
			},
		},
	}
}

// CategorySchema describes how categories are stored.
func CategorySchema() repository.Schema[Category] {
	return repository.Schema[Category]{
		Name:  "Category",
		PK:    func(c Category) int64 { return c.PK },
		SetPK: func(c *Category, pk int64) { c.PK = pk },
		Fields: []repository.Field[Category]{
			{
				Name: "name", Type: repository.Text,
				Get: func(c Category) any { return c.Name },
				Set: func(c *Category, v any) { c.Name = v.(string) },
			},
			{
				Name: "parent", Type: repository.Integer, Nullable: true,
				Get: func(c Category) any { return c.Parent },
				Set: func(c *Category, v any) { c.Parent = v.(int64) },
			},
		},
	}
}

// BudgetSchema describes how budgets are stored.
func BudgetSchema() repository.Schema[Budget] {
	return repository.Schema[Budget]{
		Name:  "Budget",
		PK:    func(b Budget) int64 { return b.PK },
		SetPK: func(b *Budget, pk int64) { b.PK = pk },
		Fields: []repository.Field[Budget]{
			{
				Name: "cost_limit", Type: repository.Integer,
				Get: func(b Budget) any { return b.CostLimit },
				Set: func(b *Budget, v any) { b.CostLimit = v.(int64) },
			},
			{
				Name: "category", Type: repository.Integer, Nullable: true,
				Get: func(b Budget) any { return b.Category },
				Set: func(b *Budget, v any) { b.Category = v.(int64) },
			},
			{
				Name: "start", Type: repository.Timestamp,
				Get: func(b Budget) any { return b.Start },
				Set: func(b *Budget, v any) { b.Start = v.(time.Time) },
			},
			{
				Name: "end", Type: repository.Timestamp,
				Get: func(b Budget) any { return b.End },
				Set: func(b *Budget, v any) { b.End = v.(time.Time) },
			},
			{
				Name: "budget_type", Type: repository.Text,
				Get: func(b Budget) any { return string(b.BudgetType) },
				Set: func(b *Budget, v any) { b.BudgetType = BudgetType(v.(string)) },
			},
		},
	}
}
