package customers

import "time"

// Customer is a counterparty record. The same table backs both buyers on
// goods issues and suppliers on goods receipts; Type tells them apart.
type Customer struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	EDRPOU         string    `json:"edrpou"`
	IPN            string    `json:"ipn"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	ContactPerson  string    `json:"contact_person"`
	BankName       string    `json:"bank_name"`
	BankAccount    string    `json:"bank_account"`
	MFO            string    `json:"mfo"`
	Discount       float64   `json:"discount"`
	CreditLimit    float64   `json:"credit_limit"`
	PaymentTerms   string    `json:"payment_terms"`
	VATPayer       bool      `json:"vat_payer"`
	VATCertificate string    `json:"vat_certificate"`
	Notes          string    `json:"notes"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const (
	TypeBuyer    = "buyer"
	TypeSupplier = "supplier"
	TypeBoth     = "both"
)
