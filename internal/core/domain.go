package core

import (
	"errors"
	"strings"
)

const (
	Income  EntryType = "INCOME"
	Expense EntryType = "EXPENSE"
)

const (
	Monthly RecurrenceFrequency = "MONTHLY"
	Yearly  RecurrenceFrequency = "YEARLY"
	Weekly  RecurrenceFrequency = "WEEKLY"
	Daily   RecurrenceFrequency = "DAILY"
)

const (
	OneTime      PurchaseType = "ONE_TIME"
	Installments PurchaseType = "INSTALLMENTS"
)

type (
	// EntryType tells income from expense on categories, transactions and recurrences.
	EntryType string

	RecurrenceFrequency string

	PurchaseType string

	Money struct {
		Cents int64
	}

	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	Account struct {
		ID           string `json:"id,omitempty"`
		Name         string `json:"name"`
		Type         string `json:"type"`
		BalanceCents int64  `json:"balanceCents"`
		CreatedAt    string `json:"createdAt,omitempty"`
	}

	Category struct {
		ID    string    `json:"id,omitempty"`
		Name  string    `json:"name"`
		Type  EntryType `json:"type"`
		Color string    `json:"color,omitempty"`
	}

	Transaction struct {
		ID          string    `json:"id,omitempty"`
		Description string    `json:"description"`
		Type        EntryType `json:"type"`
		AmountCents int64     `json:"amountCents"`
		Date        string    `json:"date"`
		AccountID   string    `json:"accountId"`
		CategoryID  string    `json:"categoryId"`
		Account     *Account  `json:"account,omitempty"`
		Category    *Category `json:"category,omitempty"`
	}

	// TransactionFilters narrows a transaction listing. Zero fields are omitted.
	TransactionFilters struct {
		Month      int
		Year       int
		AccountID  string
		CategoryID string
		Type       EntryType
	}

	Plan struct {
		ID               string `json:"id,omitempty"`
		Name             string `json:"name"`
		Description      string `json:"description,omitempty"`
		TotalAmountCents int64  `json:"totalAmountCents,omitempty"`
		EntryAmountCents int64  `json:"entryAmountCents,omitempty"`
		CreatedAt        string `json:"createdAt,omitempty"`
	}

	PlanItem struct {
		ID                   string       `json:"id,omitempty"`
		Description          string       `json:"description"`
		Quantity             int          `json:"quantity"`
		UnitAmountCents      int64        `json:"unitAmountCents"`
		TotalAmountCents     int64        `json:"totalAmountCents,omitempty"`
		PurchaseType         PurchaseType `json:"purchaseType"`
		DueDate              string       `json:"dueDate,omitempty"`
		EntryAmountCents     int64        `json:"entryAmountCents,omitempty"`
		InstallmentsCount    int          `json:"installmentsCount,omitempty"`
		FirstInstallmentDate string       `json:"firstInstallmentDate,omitempty"`
		CategoryID           string       `json:"categoryId,omitempty"`
		AccountID            string       `json:"accountId,omitempty"`
	}

	Installment struct {
		ID          string `json:"id"`
		DueDate     string `json:"dueDate"`
		AmountCents int64  `json:"amountCents"`
		Status      string `json:"status,omitempty"`
	}

	Recurrence struct {
		ID          string              `json:"id,omitempty"`
		Name        string              `json:"name"`
		Type        EntryType           `json:"type"`
		AmountCents int64               `json:"amountCents"`
		Frequency   RecurrenceFrequency `json:"frequency"`
		StartDate   string              `json:"startDate"`
		EndDate     *string             `json:"endDate,omitempty"`
		IsFixed     bool                `json:"isFixed,omitempty"`
		Description string              `json:"description,omitempty"`
	}

	Profile struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	PasswordChange struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidEntryType = errors.New("invalid entry type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyDate        = errors.New("empty date")
	ErrEmptyAccount     = errors.New("empty account")
	ErrEmptyCategory    = errors.New("empty category")
)

// String renders the amount in BRL display format.
func (m Money) String() string {
	return FormatCentsToBRL(m.Cents)
}

// Validate accepts only positive amounts, the rule applied to form submissions.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t EntryType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidEntryType
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Type.Validate()
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := (Money{Cents: t.AmountCents}).Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Date) == "" {
		return ErrEmptyDate
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrEmptyAccount
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (r Recurrence) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if err := (Money{Cents: r.AmountCents}).Validate(); err != nil {
		return err
	}

	switch r.Frequency {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return ErrInvalidFrequency
	}

	if strings.TrimSpace(r.StartDate) == "" {
		return ErrEmptyDate
	}
	// ISO dates compare lexically.
	if r.EndDate != nil && *r.EndDate != "" && *r.EndDate < r.StartDate {
		return errors.New("end date must be after start date")
	}
	return nil
}
