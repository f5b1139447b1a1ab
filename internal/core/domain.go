package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Transaction categories.
const (
	CategoryRent            = "Rent"
	CategorySecurityDeposit = "Security Deposit"
	CategoryLateFee         = "Late Fee"
	CategoryOtherIncome     = "Other Income"
	CategoryMortgage        = "Mortgage"
	CategoryInsurance       = "Insurance"
	CategoryPropertyTax     = "Property Tax"
	CategoryUtilities       = "Utilities"
	CategoryMaintenance     = "Maintenance"
	CategoryHOAFees         = "HOA Fees"
	CategoryManagementFees  = "Management Fees"
	CategoryOtherExpense    = "Other Expense"
)

// Payment methods.
const (
	PaymentCash         = "Cash"
	PaymentCheck        = "Check"
	PaymentCreditCard   = "Credit Card"
	PaymentBankTransfer = "Bank Transfer"
	PaymentOther        = "Other"
)

// Categories lists every accepted transaction category.
var Categories = []string{
	CategoryRent, CategorySecurityDeposit, CategoryLateFee, CategoryOtherIncome,
	CategoryMortgage, CategoryInsurance, CategoryPropertyTax, CategoryUtilities,
	CategoryMaintenance, CategoryHOAFees, CategoryManagementFees, CategoryOtherExpense,
}

var PaymentMethods = []string{PaymentCash, PaymentCheck, PaymentCreditCard, PaymentBankTransfer, PaymentOther}

type (
	TransactionType string

	// Date is a calendar date. The zero value means "missing or malformed".
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Ref points at another record, optionally carrying its display name.
	Ref struct {
		ID   string `json:"id"`
		Name string `json:"name,omitempty"`
	}

	Transaction struct {
		ID            string          `json:"id"`
		OwnerID       string          `json:"owner,omitempty"`
		Property      *Ref            `json:"property,omitempty"`
		Tenant        *Ref            `json:"tenant,omitempty"`
		Date          Date            `json:"date"`
		Amount        Money           `json:"amount"`
		Type          TransactionType `json:"type"`
		Category      string          `json:"category"`
		Description   string          `json:"description,omitempty"`
		PaymentMethod string          `json:"paymentMethod,omitempty"`
		Notes         string          `json:"notes,omitempty"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidDay        = errors.New("invalid day")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidPayment    = errors.New("invalid payment method")
	ErrMissingProperty   = errors.New("property is required")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrWeakPassword      = errors.New("password must be at least 6 characters")
	ErrDescriptionLength = errors.New("description too long (max 500 characters)")
)

// ValidationError marks errors caused by bad client input.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a ValidationError.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// IsValidation reports whether err was caused by bad client input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func IsCategory(s string) bool {
	return contains(Categories, s)
}

func IsPaymentMethod(s string) bool {
	return contains(PaymentMethods, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// ParseDate accepts YYYY-MM-DD and RFC 3339 timestamps. The calendar date
// is taken as written, ignoring the offset.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), true
		}
	}
	return Date{}, false
}

// Valid reports whether the date was present and parseable.
func (d Date) Valid() bool {
	return !d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON never fails: a value that is not a recognised date string
// leaves the zero Date behind.
func (d *Date) UnmarshalJSON(b []byte) error {
	*d = Date{}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if parsed, ok := ParseDate(s); ok {
		*d = parsed
	}
	return nil
}

// UnmarshalJSON accepts a bare id string or an object with id/_id and an
// optional name (or firstName/lastName for people).
func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = Ref{ID: strings.TrimSpace(id)}
		return nil
	}
	var raw struct {
		ID        string `json:"id"`
		MongoID   string `json:"_id"`
		Name      string `json:"name"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	id := raw.ID
	if id == "" {
		id = raw.MongoID
	}
	name := raw.Name
	if name == "" {
		name = strings.TrimSpace(raw.FirstName + " " + raw.LastName)
	}
	*r = Ref{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)}
	return nil
}

// Empty reports whether the reference carries neither an id nor a name.
func (r *Ref) Empty() bool {
	return r == nil || (strings.TrimSpace(r.ID) == "" && strings.TrimSpace(r.Name) == "")
}

// RefID returns the referenced id or "" for a nil reference.
func (r *Ref) RefID() string {
	if r == nil {
		return ""
	}
	return r.ID
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !IsCategory(t.Category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if t.Property.RefID() == "" {
		return ErrMissingProperty
	}
	if t.PaymentMethod != "" && !IsPaymentMethod(t.PaymentMethod) {
		return fmt.Errorf("%w: %q", ErrInvalidPayment, t.PaymentMethod)
	}
	if len(t.Description) > 500 {
		return ErrDescriptionLength
	}
	return nil
}

// UnmarshalJSON decodes on top of the current value, so a partial body
// keeps the fields it omits. The amount is folded to its magnitude.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	type plain Transaction
	p := plain(*t)
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	p.Amount = p.Amount.Abs()
	*t = Transaction(p)
	return nil
}

// Signed returns the amount with expenses negated.
func (t Transaction) Signed() Money {
	if t.Type == Expense {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}
