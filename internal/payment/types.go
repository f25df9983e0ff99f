package payment

import "time"

// PreferenceItem is one line of a hosted checkout preference. Shipping
// and discounts ride along as pseudo-line-items so the provider-shown
// total matches the order total exactly.
type PreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type PreferencePayer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest describes a provider-hosted checkout session.
type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	Payer             PreferencePayer  `json:"payer"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url,omitempty"`
	Expires           bool             `json:"expires"`
	ExpirationDateTo  time.Time        `json:"expiration_date_to,omitempty"`
}

// Preference is the provider's hosted checkout session.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}

// PaymentRequest is a direct (client-tokenized) payment submission.
type PaymentRequest struct {
	Token             string          `json:"token"`
	PaymentMethodID   string          `json:"payment_method_id"`
	Installments      int             `json:"installments"`
	TransactionAmount float64         `json:"transaction_amount"`
	Description       string          `json:"description,omitempty"`
	ExternalReference string          `json:"external_reference"`
	Payer             PreferencePayer `json:"payer"`
}

// Payment is the provider's authoritative payment record.
type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail,omitempty"`
	ExternalReference string  `json:"external_reference"`
	PaymentMethodID   string  `json:"payment_method_id,omitempty"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id,omitempty"`
}
