package warehouse

import "time"

// DocumentHeader carries the fields shared by receipt and issue documents.
type DocumentHeader struct {
	ID             int64     `json:"id"`
	Number         string    `json:"number"`
	Date           time.Time `json:"date"`
	CounterpartyID int64     `json:"counterparty_id"`
	Counterparty   string    `json:"counterparty,omitempty"`
	Contract       string    `json:"contract"`
	Warehouse      string    `json:"warehouse"`
	Organization   string    `json:"organization"`
	OperationType  string    `json:"operation_type"`
	Responsible    string    `json:"responsible"`
	Comment        string    `json:"comment"`
	PricingNote    string    `json:"pricing_note"`
	CreatedAt      time.Time `json:"created_at"`
}

type DocumentItem struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Product   string  `json:"product,omitempty"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
}

// GoodsReceipt records inbound stock; posting it opens one batch per line.
type GoodsReceipt struct {
	DocumentHeader
	Items []DocumentItem `json:"items"`
}

// GoodsIssue records outbound stock; posting it consumes batches FIFO.
type GoodsIssue struct {
	DocumentHeader
	Items []DocumentItem `json:"items"`
}
