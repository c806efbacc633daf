package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finance/internal/core"
	"finance/internal/resolver"
)

// segments joins path parts with each one escaped, so an id can never add
// or climb path segments.
func segments(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/")
}

func monthYear(month, year int) url.Values {
	q := url.Values{}
	q.Set("month", strconv.Itoa(month))
	q.Set("year", strconv.Itoa(year))
	return q
}

func filterQuery(f core.TransactionFilters) url.Values {
	q := url.Values{}
	if f.Month > 0 {
		q.Set("month", strconv.Itoa(f.Month))
	}
	if f.Year > 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	if f.AccountID != "" {
		q.Set("accountId", f.AccountID)
	}
	if f.CategoryID != "" {
		q.Set("categoryId", f.CategoryID)
	}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	return q
}

// Accounts

func (c *Client) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return get[[]core.Account](ctx, c, resolver.Accounts, "", nil)
}

func (c *Client) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	return send[core.Account](ctx, c, http.MethodPost, resolver.Accounts, "", a)
}

// Categories

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	return get[[]core.Category](ctx, c, resolver.Categories, "", nil)
}

func (c *Client) CreateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}
	return send[core.Category](ctx, c, http.MethodPost, resolver.Categories, "", cat)
}

func (c *Client) UpdateCategory(ctx context.Context, id string, cat core.Category) (core.Category, error) {
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}
	return send[core.Category](ctx, c, http.MethodPut, resolver.Categories, segments(id), cat)
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, resolver.Categories, segments(id), nil, nil, nil)
}

// Transactions

func (c *Client) ListTransactions(ctx context.Context, filters core.TransactionFilters) ([]core.Transaction, error) {
	return get[[]core.Transaction](ctx, c, resolver.Transactions, "", filterQuery(filters))
}

func (c *Client) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return send[core.Transaction](ctx, c, http.MethodPost, resolver.Transactions, "", t)
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return send[core.Transaction](ctx, c, http.MethodPut, resolver.Transactions, segments(id), t)
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, resolver.Transactions, segments(id), nil, nil, nil)
}

// Plans

func (c *Client) ListPlans(ctx context.Context) ([]core.Plan, error) {
	return get[[]core.Plan](ctx, c, resolver.Plans, "", nil)
}

func (c *Client) GetPlan(ctx context.Context, id string) (core.Plan, error) {
	return get[core.Plan](ctx, c, resolver.Plans, segments(id), nil)
}

func (c *Client) CreatePlan(ctx context.Context, p core.Plan) (core.Plan, error) {
	if p.Name == "" {
		return core.Plan{}, core.ErrEmptyName
	}
	return send[core.Plan](ctx, c, http.MethodPost, resolver.Plans, "", p)
}

func (c *Client) UpdatePlan(ctx context.Context, id string, p core.Plan) (core.Plan, error) {
	if p.Name == "" {
		return core.Plan{}, core.ErrEmptyName
	}
	return send[core.Plan](ctx, c, http.MethodPut, resolver.Plans, segments(id), p)
}

func (c *Client) DeletePlan(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, resolver.Plans, segments(id), nil, nil, nil)
}

func (c *Client) ListPlanItems(ctx context.Context, planID string) ([]core.PlanItem, error) {
	return get[[]core.PlanItem](ctx, c, resolver.Plans, segments(planID, "itens"), nil)
}

func (c *Client) CreatePlanItem(ctx context.Context, planID string, item core.PlanItem) (core.PlanItem, error) {
	return send[core.PlanItem](ctx, c, http.MethodPost, resolver.Plans, segments(planID, "itens"), item)
}

func (c *Client) UpdatePlanItem(ctx context.Context, planID, itemID string, item core.PlanItem) (core.PlanItem, error) {
	return send[core.PlanItem](ctx, c, http.MethodPut, resolver.Plans, segments(planID, "itens", itemID), item)
}

func (c *Client) DeletePlanItem(ctx context.Context, planID, itemID string) error {
	return c.Do(ctx, http.MethodDelete, resolver.Plans, segments(planID, "itens", itemID), nil, nil, nil)
}

func (c *Client) ListInstallments(ctx context.Context, planID, itemID string) ([]core.Installment, error) {
	return get[[]core.Installment](ctx, c, resolver.Plans, segments(planID, "itens", itemID, "parcelas"), nil)
}

// MonthlyProjection returns months entries starting at startMonth/startYear.
func (c *Client) MonthlyProjection(ctx context.Context, startMonth, startYear, months int) ([]core.MonthlyProjection, error) {
	q := url.Values{}
	q.Set("startMonth", strconv.Itoa(startMonth))
	q.Set("startYear", strconv.Itoa(startYear))
	q.Set("months", strconv.Itoa(months))
	return get[[]core.MonthlyProjection](ctx, c, resolver.PlanProjection, "", q)
}

// Dashboard

func (c *Client) DashboardSummary(ctx context.Context, month, year int) (core.DashboardSummary, error) {
	return get[core.DashboardSummary](ctx, c, resolver.DashboardResumo, "", monthYear(month, year))
}

func (c *Client) DailyFlow(ctx context.Context, month, year int) ([]core.DailyFlow, error) {
	return get[[]core.DailyFlow](ctx, c, resolver.DashboardFluxo, "", monthYear(month, year))
}

func (c *Client) ExpensesByCategory(ctx context.Context, month, year int) ([]core.CategoryExpense, error) {
	return get[[]core.CategoryExpense](ctx, c, resolver.DashboardDespesas, "", monthYear(month, year))
}

func (c *Client) MonthlySeries(ctx context.Context, month, year int) ([]core.MonthlySeriesPoint, error) {
	return get[[]core.MonthlySeriesPoint](ctx, c, resolver.DashboardSerieMensal, "", monthYear(month, year))
}

// Recurrences

func (c *Client) ListRecurrences(ctx context.Context) ([]core.Recurrence, error) {
	return get[[]core.Recurrence](ctx, c, resolver.Recurrences, "", nil)
}

func (c *Client) CreateRecurrence(ctx context.Context, r core.Recurrence) (core.Recurrence, error) {
	if err := r.Validate(); err != nil {
		return core.Recurrence{}, err
	}
	return send[core.Recurrence](ctx, c, http.MethodPost, resolver.Recurrences, "", r)
}

func (c *Client) UpdateRecurrence(ctx context.Context, id string, r core.Recurrence) (core.Recurrence, error) {
	if err := r.Validate(); err != nil {
		return core.Recurrence{}, err
	}
	return send[core.Recurrence](ctx, c, http.MethodPut, resolver.Recurrences, segments(id), r)
}

func (c *Client) DeleteRecurrence(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, resolver.Recurrences, segments(id), nil, nil, nil)
}

// Settings

func (c *Client) GetProfile(ctx context.Context) (core.Profile, error) {
	return get[core.Profile](ctx, c, resolver.SettingsProfile, "", nil)
}

func (c *Client) UpdateProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	if p.Name == "" {
		return core.Profile{}, core.ErrEmptyName
	}
	return send[core.Profile](ctx, c, http.MethodPut, resolver.SettingsProfile, "", p)
}

func (c *Client) ChangePassword(ctx context.Context, change core.PasswordChange) error {
	return c.Do(ctx, http.MethodPut, resolver.SettingsPassword, "", nil, change, nil)
}
