package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/urbanedge/storefront-api/internal/config"
	"github.com/urbanedge/storefront-api/internal/domain"
)

// Mailer sends transactional storefront email. Failures are always
// non-fatal to the caller's flow.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order *domain.Order) error
}

// Client talks to the transactional email provider's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new email provider client
func NewClient(cfg config.EmailConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		from:    cfg.FromAddress,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendOrderConfirmation sends the order confirmation email.
func (c *Client) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	req := sendRequest{
		From:    c.from,
		To:      []string{order.CustomerEmail},
		Subject: fmt.Sprintf("Confirmación de pedido %s", order.ExternalReference),
		HTML:    confirmationBody(order),
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}

func confirmationBody(order *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>¡Gracias por tu compra, %s!</h1>", order.CustomerName)
	fmt.Fprintf(&b, "<p>Tu pedido <strong>%s</strong> ha sido confirmado.</p>", order.ExternalReference)
	b.WriteString("<ul>")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<li>%s (talla %s) x%d &middot; $%.2f</li>", item.ProductName, item.Size, item.Quantity, item.UnitPrice)
	}
	b.WriteString("</ul>")
	if order.Discount > 0 {
		fmt.Fprintf(&b, "<p>Descuento: -$%.2f</p>", order.Discount)
	}
	if order.Shipping == 0 {
		b.WriteString("<p>Envío: gratis</p>")
	} else {
		fmt.Fprintf(&b, "<p>Envío: $%.2f</p>", order.Shipping)
	}
	fmt.Fprintf(&b, "<p><strong>Total: $%.2f %s</strong></p>", order.Total, order.Currency)
	return b.String()
}
