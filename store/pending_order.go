package store

const PendingOrderStatusPendingPayment = "pending_payment"

type PendingOrder struct {
	ID               string `json:"id"`
	RequestedProduct string `json:"requestedProduct"`
	RawText          string `json:"rawText"`
	Status           string `json:"status"`
	CreatedTs        int64  `json:"createdTs"`
}

type FindPendingOrder struct {
	Limit int
}
