package warehouse

type ItemForm struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
}

type DocumentForm struct {
	Number         string     `json:"number" validate:"required"`
	Date           string     `json:"date" validate:"required"`
	CounterpartyID int64      `json:"counterparty_id" validate:"required,gt=0"`
	Contract       string     `json:"contract"`
	Warehouse      string     `json:"warehouse"`
	Organization   string     `json:"organization"`
	OperationType  string     `json:"operation_type"`
	Responsible    string     `json:"responsible"`
	Comment        string     `json:"comment"`
	PricingNote    string     `json:"pricing_note"`
	Items          []ItemForm `json:"items" validate:"required,min=1,dive"`
}

type ReceiptListResponse struct {
	Items []GoodsReceipt `json:"items"`
	Total int            `json:"total"`
}

type IssueListResponse struct {
	Items []GoodsIssue `json:"items"`
	Total int          `json:"total"`
}
