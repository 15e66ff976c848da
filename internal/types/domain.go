package types

import "time"

// TemplateType is the category key selecting which message content applies
// to a lifecycle event.
type TemplateType string

const (
	TemplateOrderStatus    TemplateType = "order_status_update"
	TemplateShipmentUpdate TemplateType = "shipment_tracking_update"
)

// EmailTemplate is a database-stored message template. At most one template
// per TemplateType is active; the resolver treats zero active rows as a hard
// configuration failure.
type EmailTemplate struct {
	ID          string       `json:"id"`
	Type        TemplateType `json:"template_type"`
	Subject     string       `json:"subject"`
	HTMLContent string       `json:"html_content"`
	// Variables documents the placeholder names the template uses. It is
	// informational only; the compiler does not enforce it.
	Variables []string  `json:"variables"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// SendStatus is the send-ledger state machine: sending -> sent | failed.
type SendStatus string

const (
	SendStatusSending SendStatus = "sending"
	SendStatusSent    SendStatus = "sent"
	SendStatusFailed  SendStatus = "failed"
)

// SendRecord is one append-then-reconcile ledger entry for a dispatch
// attempt. The row is created in state "sending" before any network call and
// reconciled exactly once to "sent" or "failed". Its id is the join key for
// all engagement events and is embedded in every tracking link, so it must
// exist before link rewriting.
type SendRecord struct {
	ID         string     `json:"id"`
	Recipients []string   `json:"recipients"`
	Subject    string     `json:"subject"`
	// Content is a short human-readable summary, not the full HTML body.
	Content         string       `json:"content"`
	EmailType       TemplateType `json:"email_type"`
	RelatedEntityID string       `json:"related_entity_id"`
	Status          SendStatus   `json:"status"`
	ErrorMessage    string       `json:"error_message,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// OpenEvent records one retrieval of the open pixel. Append-only; repeated
// opens by the same recipient produce separate rows.
type OpenEvent struct {
	ID             string    `json:"id"`
	SendRecordID   string    `json:"send_record_id"`
	RecipientEmail string    `json:"recipient_email"`
	OpenedAt       time.Time `json:"opened_at"`
	IPAddress      string    `json:"ip_address,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
}

// ClickEvent records one pass through the click redirector. LinkURL is the
// original destination, not the wrapped tracking URL.
type ClickEvent struct {
	ID             string    `json:"id"`
	SendRecordID   string    `json:"send_record_id"`
	RecipientEmail string    `json:"recipient_email"`
	LinkURL        string    `json:"link_url"`
	ClickedAt      time.Time `json:"clicked_at"`
	IPAddress      string    `json:"ip_address,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
}

// FeedbackEvent records one reply-style feedback submission. No uniqueness
// constraint: a recipient may submit feedback more than once.
type FeedbackEvent struct {
	ID             string    `json:"id"`
	SendRecordID   string    `json:"send_record_id"`
	RecipientEmail string    `json:"recipient_email"`
	Rating         int       `json:"rating"`
	FeedbackText   string    `json:"feedback_text,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Order is the storefront order as read by the notification pipeline. The
// order store itself is owned by the excluded CRUD layer; this service only
// reads it.
type Order struct {
	ID            string      `json:"id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	Status        string      `json:"status"`
	Total         float64     `json:"total"`
	CreatedAt     time.Time   `json:"created_at"`
	Items         []OrderItem `json:"items"`
}

// OrderItem is one purchased line item.
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Shipment is a tracked parcel for an order.
type Shipment struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"order_id"`
	CustomerName   string    `json:"customer_name"`
	CustomerEmail  string    `json:"customer_email"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
	Status         string    `json:"status"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CompanyInfo is the sender's company profile. A missing profile never
// blocks delivery; every field defaults to an empty string.
type CompanyInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Website string `json:"website"`
}

// EmailMessage is the composed message handed to the transport API.
type EmailMessage struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	ReplyTo string            `json:"reply_to,omitempty"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html"`
	Text    string            `json:"text"`
	Headers map[string]string `json:"headers,omitempty"`
}

// DispatchResult carries the transport outcome back to the ledger for
// reconciliation. Transport failures are data, not errors: the dispatcher
// never lets a provider failure escape as a Go error, so the ledger can
// always be reconciled to "failed".
type DispatchResult struct {
	Accepted          bool   `json:"accepted"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	StatusCode        int    `json:"status_code"`
	ErrorDetail       string `json:"error_detail,omitempty"`
}

// EngagementSummary is the read side of the engagement loop: one ledger row
// with aggregated event counts.
type EngagementSummary struct {
	Send          SendRecord `json:"send"`
	OpenCount     int        `json:"open_count"`
	ClickCount    int        `json:"click_count"`
	FeedbackCount int        `json:"feedback_count"`
}
