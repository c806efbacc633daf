package core

// DashboardSummary carries the month totals. Backends disagree on the field
// names, so both spellings are decoded and Income/Expense pick whichever is set.
type DashboardSummary struct {
	TotalBalanceCents int64 `json:"totalBalanceCents,omitempty"`
	TotalIncomeCents  int64 `json:"totalIncomeCents,omitempty"`
	TotalExpenseCents int64 `json:"totalExpenseCents,omitempty"`
	ResultCents       int64 `json:"resultCents,omitempty"`
	IncomeCents       int64 `json:"incomeCents,omitempty"`
	ExpenseCents      int64 `json:"expenseCents,omitempty"`
}

// Income returns the month income in cents.
func (s DashboardSummary) Income() int64 {
	if s.TotalIncomeCents != 0 {
		return s.TotalIncomeCents
	}
	return s.IncomeCents
}

// Expense returns the month expense in cents.
func (s DashboardSummary) Expense() int64 {
	if s.TotalExpenseCents != 0 {
		return s.TotalExpenseCents
	}
	return s.ExpenseCents
}

// Result returns the month result, derived from income and expense when the
// backend did not send one.
func (s DashboardSummary) Result() int64 {
	if s.ResultCents != 0 {
		return s.ResultCents
	}
	return s.Income() - s.Expense()
}

// CategoryExpense is one slice of the expenses-by-category chart.
type CategoryExpense struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	TotalCents   int64  `json:"totalCents"`
	Color        string `json:"color,omitempty"`
}

// DailyFlow is one day of the daily cash flow series.
type DailyFlow struct {
	Date         string `json:"date"`
	IncomeCents  int64  `json:"incomeCents"`
	ExpenseCents int64  `json:"expenseCents"`
}

// MonthlySeriesPoint is one month of the monthly series chart.
type MonthlySeriesPoint struct {
	Month        int   `json:"month"`
	Year         int   `json:"year"`
	IncomeCents  int64 `json:"incomeCents"`
	ExpenseCents int64 `json:"expenseCents"`
}

// MonthlyProjection is one month of the plan projection.
type MonthlyProjection struct {
	Month               int   `json:"month"`
	Year                int   `json:"year"`
	ReceitasCents       int64 `json:"receitasCents"`
	DespesasCents       int64 `json:"despesasCents"`
	PlanejadoCents      int64 `json:"planejadoCents"`
	ResultadoCents      int64 `json:"resultadoCents"`
	SaldoProjetadoCents int64 `json:"saldoProjetadoCents"`
}
