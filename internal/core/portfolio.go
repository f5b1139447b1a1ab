package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Property types and statuses.
const (
	PropertyApartment    = "Apartment"
	PropertyCondo        = "Condo"
	PropertySingleFamily = "Single Family"
	PropertyMultiFamily  = "Multi-Family"
	PropertyCommercial   = "Commercial"
	PropertyOther        = "Other"

	StatusVacant      = "Vacant"
	StatusRented      = "Rented"
	StatusMaintenance = "Maintenance"
	StatusListed      = "Listed"
)

// Tenant statuses.
const (
	TenantActive      = "Active"
	TenantPrevious    = "Previous"
	TenantProspective = "Prospective"
)

// Lease statuses and payment frequencies.
const (
	LeaseActive     = "Active"
	LeaseExpired    = "Expired"
	LeaseTerminated = "Terminated"
	LeasePending    = "Pending"

	FrequencyMonthly   = "Monthly"
	FrequencyQuarterly = "Quarterly"
	FrequencyAnnually  = "Annually"
)

// Maintenance priorities, statuses and categories.
const (
	PriorityLow       = "Low"
	PriorityMedium    = "Medium"
	PriorityHigh      = "High"
	PriorityEmergency = "Emergency"

	RequestOpen       = "Open"
	RequestInProgress = "In Progress"
	RequestCompleted  = "Completed"
	RequestCancelled  = "Cancelled"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	PropertyTypes       = []string{PropertyApartment, PropertyCondo, PropertySingleFamily, PropertyMultiFamily, PropertyCommercial, PropertyOther}
	PropertyStatuses    = []string{StatusVacant, StatusRented, StatusMaintenance, StatusListed}
	TenantStatuses      = []string{TenantActive, TenantPrevious, TenantProspective}
	LeaseStatuses       = []string{LeaseActive, LeaseExpired, LeaseTerminated, LeasePending}
	PaymentFrequencies  = []string{FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually}
	MaintenancePriority = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency}
	MaintenanceStatuses = []string{RequestOpen, RequestInProgress, RequestCompleted, RequestCancelled}
	MaintenanceKinds    = []string{"Plumbing", "Electrical", "HVAC", "Appliance", "Structural", "Pest Control", "Landscaping", "Other"}
)

type (
	Address struct {
		Street  string `json:"street,omitempty"`
		City    string `json:"city,omitempty"`
		State   string `json:"state,omitempty"`
		ZipCode string `json:"zipCode,omitempty"`
		Country string `json:"country,omitempty"`
	}

	Property struct {
		ID            string    `json:"id"`
		OwnerID       string    `json:"owner,omitempty"`
		Name          string    `json:"name"`
		Address       Address   `json:"address"`
		Type          string    `json:"propertyType"`
		Status        string    `json:"status"`
		Bedrooms      int       `json:"bedrooms"`
		Bathrooms     float64   `json:"bathrooms"`
		SquareFeet    int       `json:"squareFeet"`
		PurchasePrice Money     `json:"purchasePrice"`
		PurchaseDate  Date      `json:"purchaseDate"`
		CurrentValue  Money     `json:"currentValue"`
		Description   string    `json:"description,omitempty"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	EmergencyContact struct {
		Name         string `json:"name,omitempty"`
		Phone        string `json:"phone,omitempty"`
		Relationship string `json:"relationship,omitempty"`
	}

	Tenant struct {
		ID               string           `json:"id"`
		OwnerID          string           `json:"owner,omitempty"`
		FirstName        string           `json:"firstName"`
		LastName         string           `json:"lastName"`
		Email            string           `json:"email,omitempty"`
		Phone            string           `json:"phone,omitempty"`
		Status           string           `json:"status"`
		Property         *Ref             `json:"property,omitempty"`
		EmergencyContact EmergencyContact `json:"emergencyContact"`
		Notes            string           `json:"notes,omitempty"`
		CreatedAt        time.Time        `json:"createdAt"`
		UpdatedAt        time.Time        `json:"updatedAt"`
	}

	PaymentDue struct {
		Day       int    `json:"day"`
		Frequency string `json:"frequency"`
	}

	Lease struct {
		ID              string     `json:"id"`
		OwnerID         string     `json:"owner,omitempty"`
		Property        *Ref       `json:"property"`
		Tenant          *Ref       `json:"tenant"`
		StartDate       Date       `json:"startDate"`
		EndDate         Date       `json:"endDate"`
		RentAmount      Money      `json:"rentAmount"`
		SecurityDeposit Money      `json:"securityDeposit"`
		PaymentDue      PaymentDue `json:"paymentDue"`
		Status          string     `json:"status"`
		Terms           string     `json:"terms,omitempty"`
		CreatedAt       time.Time  `json:"createdAt"`
		UpdatedAt       time.Time  `json:"updatedAt"`
	}

	MaintenanceRequest struct {
		ID            string    `json:"id"`
		OwnerID       string    `json:"owner,omitempty"`
		Property      *Ref      `json:"property"`
		Tenant        *Ref      `json:"tenant,omitempty"`
		Title         string    `json:"title"`
		Description   string    `json:"description"`
		Priority      string    `json:"priority"`
		Status        string    `json:"status"`
		Category      string    `json:"category"`
		Cost          Money     `json:"cost"`
		ScheduledDate Date      `json:"scheduledDate"`
		CompletedDate Date      `json:"completedDate"`
		AssignedTo    string    `json:"assignedTo,omitempty"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	MortgageDocument struct {
		Name       string `json:"name"`
		FileURL    string `json:"fileUrl"`
		UploadDate Date   `json:"uploadDate"`
	}

	Mortgage struct {
		ID             string             `json:"id"`
		OwnerID        string             `json:"owner,omitempty"`
		Property       *Ref               `json:"property"`
		Lender         string             `json:"lender"`
		LoanNumber     string             `json:"loanNumber,omitempty"`
		OriginalAmount Money              `json:"originalAmount"`
		CurrentBalance Money              `json:"currentBalance"`
		InterestRate   float64            `json:"interestRate"`
		Term           int                `json:"term"`
		StartDate      Date               `json:"startDate"`
		MaturityDate   Date               `json:"maturityDate"`
		MonthlyPayment Money              `json:"monthlyPayment"`
		PaymentDay     int                `json:"paymentDay"`
		Escrow         bool               `json:"escrow"`
		EscrowAmount   Money              `json:"escrowAmount"`
		Documents      []MortgageDocument `json:"documents"`
		Notes          string             `json:"notes,omitempty"`
		CreatedAt      time.Time          `json:"createdAt"`
		UpdatedAt      time.Time          `json:"updatedAt"`
	}

	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		Role         string    `json:"role"`
		CreatedAt    time.Time `json:"createdAt"`
	}
)

// Defaults fills the fields a create form may leave blank.
func (p *Property) Defaults() {
	if p.Status == "" {
		p.Status = StatusVacant
	}
	if p.Type == "" {
		p.Type = PropertyOther
	}
}

func (p Property) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if !contains(PropertyTypes, p.Type) {
		return fmt.Errorf("invalid property type %q", p.Type)
	}
	if !contains(PropertyStatuses, p.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}
	if p.Bedrooms < 0 || p.Bathrooms < 0 || p.SquareFeet < 0 {
		return errors.New("room counts and size cannot be negative")
	}
	return nil
}

// FullName returns "First Last".
func (t Tenant) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

func (t *Tenant) Defaults() {
	if t.Status == "" {
		t.Status = TenantActive
	}
}

func (t Tenant) Validate() error {
	if strings.TrimSpace(t.FirstName) == "" || strings.TrimSpace(t.LastName) == "" {
		return ErrEmptyName
	}
	if t.Email != "" && !strings.Contains(t.Email, "@") {
		return ErrInvalidEmail
	}
	if !contains(TenantStatuses, t.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	return nil
}

func (l *Lease) Defaults() {
	if l.Status == "" {
		l.Status = LeasePending
	}
	if l.PaymentDue.Day == 0 {
		l.PaymentDue.Day = 1
	}
	if l.PaymentDue.Frequency == "" {
		l.PaymentDue.Frequency = FrequencyMonthly
	}
}

func (l Lease) Validate() error {
	if l.Property.RefID() == "" {
		return ErrMissingProperty
	}
	if l.Tenant.RefID() == "" {
		return errors.New("tenant is required")
	}
	if err := l.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if err := l.EndDate.Validate(); err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if l.EndDate.Before(l.StartDate.Time) {
		return errors.New("end date must be after start date")
	}
	if err := l.RentAmount.Validate(); err != nil {
		return err
	}
	if l.SecurityDeposit.Cents < 0 {
		return ErrInvalidAmount
	}
	if l.PaymentDue.Day < 1 || l.PaymentDue.Day > 31 {
		return ErrInvalidDay
	}
	if !contains(PaymentFrequencies, l.PaymentDue.Frequency) {
		return fmt.Errorf("invalid payment frequency %q", l.PaymentDue.Frequency)
	}
	if !contains(LeaseStatuses, l.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, l.Status)
	}
	return nil
}

// EndsWithin reports whether an active lease ends between now and now+d.
func (l Lease) EndsWithin(now time.Time, d time.Duration) bool {
	if l.Status != LeaseActive || !l.EndDate.Valid() {
		return false
	}
	today := NewDate(now.Year(), int(now.Month()), now.Day())
	return !l.EndDate.Before(today.Time) && !l.EndDate.After(today.Add(d))
}

func (m *MaintenanceRequest) Defaults() {
	if m.Priority == "" {
		m.Priority = PriorityMedium
	}
	if m.Status == "" {
		m.Status = RequestOpen
	}
	if m.Category == "" {
		m.Category = "Other"
	}
}

// Stamp sets the completion date when a request is completed without one.
func (m *MaintenanceRequest) Stamp(now time.Time) {
	if m.Status == RequestCompleted && !m.CompletedDate.Valid() {
		m.CompletedDate = NewDate(now.Year(), int(now.Month()), now.Day())
	}
}

func (m MaintenanceRequest) Validate() error {
	if m.Property.RefID() == "" {
		return ErrMissingProperty
	}
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(m.Description) == "" {
		return errors.New("description is required")
	}
	if !contains(MaintenancePriority, m.Priority) {
		return fmt.Errorf("invalid priority %q", m.Priority)
	}
	if !contains(MaintenanceStatuses, m.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, m.Status)
	}
	if !contains(MaintenanceKinds, m.Category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, m.Category)
	}
	if m.Cost.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsOpen reports whether work on the request is still pending.
func (m MaintenanceRequest) IsOpen() bool {
	return m.Status == RequestOpen || m.Status == RequestInProgress
}

// IsMaintenanceStatus reports whether s names a known request status.
func IsMaintenanceStatus(s string) bool {
	return contains(MaintenanceStatuses, s)
}

func (m *Mortgage) Defaults() {
	m.Lender = strings.TrimSpace(m.Lender)
	m.LoanNumber = strings.TrimSpace(m.LoanNumber)
	m.Notes = strings.TrimSpace(m.Notes)
	if m.Documents == nil {
		m.Documents = []MortgageDocument{}
	}
}

// Stamp dates the documents attached without an upload date.
func (m *Mortgage) Stamp(now time.Time) {
	today := NewDate(now.Year(), int(now.Month()), now.Day())
	for i := range m.Documents {
		if !m.Documents[i].UploadDate.Valid() {
			m.Documents[i].UploadDate = today
		}
	}
}

func (m Mortgage) Validate() error {
	if m.Property.RefID() == "" {
		return ErrMissingProperty
	}
	if m.Lender == "" {
		return errors.New("lender is required")
	}
	if m.OriginalAmount.Cents < 0 || m.CurrentBalance.Cents < 0 ||
		m.MonthlyPayment.Cents < 0 || m.EscrowAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if m.InterestRate < 0 {
		return errors.New("interest rate cannot be negative")
	}
	if m.Term < 1 {
		return errors.New("term must be at least one month")
	}
	if err := m.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	if err := m.MaturityDate.Validate(); err != nil {
		return fmt.Errorf("invalid maturity date: %w", err)
	}
	if m.MaturityDate.Before(m.StartDate.Time) {
		return errors.New("maturity date must be after start date")
	}
	if m.PaymentDay < 1 || m.PaymentDay > 31 {
		return ErrInvalidDay
	}
	for _, d := range m.Documents {
		if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.FileURL) == "" {
			return errors.New("documents need a name and a file url")
		}
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if u.Role != RoleUser && u.Role != RoleAdmin {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
