package customers

import "github.com/meridian-erp/meridian-erp/internal/shared"

type CustomerForm struct {
	Name           string  `json:"name" validate:"required"`
	Type           string  `json:"type" validate:"required,oneof=buyer supplier both"`
	EDRPOU         string  `json:"edrpou" validate:"omitempty,numeric,len=8"`
	IPN            string  `json:"ipn" validate:"omitempty,numeric"`
	Address        string  `json:"address"`
	City           string  `json:"city"`
	Phone          string  `json:"phone"`
	Email          string  `json:"email" validate:"omitempty,email"`
	ContactPerson  string  `json:"contact_person"`
	BankName       string  `json:"bank_name"`
	BankAccount    string  `json:"bank_account"`
	MFO            string  `json:"mfo"`
	Discount       float64 `json:"discount" validate:"gte=0,lte=100"`
	CreditLimit    float64 `json:"credit_limit" validate:"gte=0"`
	PaymentTerms   string  `json:"payment_terms"`
	VATPayer       bool    `json:"vat_payer"`
	VATCertificate string  `json:"vat_certificate"`
	Notes          string  `json:"notes"`
	IsActive       *bool   `json:"is_active"`
}

func (f CustomerForm) toModel() Customer {
	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}
	return Customer{
		Name:           f.Name,
		Type:           f.Type,
		EDRPOU:         f.EDRPOU,
		IPN:            f.IPN,
		Address:        f.Address,
		City:           f.City,
		Phone:          f.Phone,
		Email:          f.Email,
		ContactPerson:  f.ContactPerson,
		BankName:       f.BankName,
		BankAccount:    f.BankAccount,
		MFO:            f.MFO,
		Discount:       f.Discount,
		CreditLimit:    f.CreditLimit,
		PaymentTerms:   f.PaymentTerms,
		VATPayer:       f.VATPayer,
		VATCertificate: f.VATCertificate,
		Notes:          f.Notes,
		IsActive:       active,
	}
}

type ListResponse struct {
	Items      []Customer        `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}
