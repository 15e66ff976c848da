// Package email implements the transactional notification pipeline: context
// building, template compilation, dispatch, and ledger reconciliation.
package email

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"shopnotify/internal/status"
	"shopnotify/internal/tracking"
	"shopnotify/internal/types"
)

// descriptionCap is the soft cap on product description length; longer
// descriptions are cut at the cap and suffixed with an ellipsis.
const descriptionCap = 120

// Context is the flat data bag handed to the template compiler. Values are
// strings, numbers, booleans, and (for products) a list of nested maps.
type Context map[string]interface{}

// romanianMonths maps time.Month to the lowercase Romanian month name used
// in customer-facing dates.
var romanianMonths = [...]string{
	"ianuarie", "februarie", "martie", "aprilie", "mai", "iunie",
	"iulie", "august", "septembrie", "octombrie", "noiembrie", "decembrie",
}

// BuildOrderContext assembles the template context for an order-status
// notification. The status display fields come from the taxonomy lookup for
// statusCode, which may differ from the status stored on the order (the
// trigger carries the new status). Company fields default to empty strings
// when the profile is missing; delivery is never blocked on company
// metadata.
func BuildOrderContext(order *types.Order, company types.CompanyInfo, statusCode, storefrontURL string) Context {
	info := status.Lookup(statusCode)
	orderNumber := OrderNumber(order.ID)
	orderDate := FormatDate(order.CreatedAt)
	total := FormatAmount(order.Total)

	ctx := Context{
		"customerName":  order.CustomerName,
		"customerEmail": order.CustomerEmail,
		"orderNumber":   orderNumber,
		"orderDate":     orderDate,
		"orderTotal":    total,
		"orderLink":     strings.TrimSuffix(storefrontURL, "/") + "/orders/" + url.PathEscape(order.ID),

		"status":        statusCode,
		"statusEmoji":   info.Emoji,
		"statusTitle":   info.Title,
		"statusMessage": info.Message,

		"products":    buildProducts(order.Items, storefrontURL),
		"contactLink": contactLink(company, orderNumber, info.Title, orderDate, total),
	}
	addCompanyFields(ctx, company)
	return ctx
}

// BuildShipmentContext assembles the template context for a
// shipment-tracking notification. The order supplies the line items and
// totals; the shipment supplies the tracking fields.
func BuildShipmentContext(shipment *types.Shipment, order *types.Order, company types.CompanyInfo, statusCode, storefrontURL string) Context {
	ctx := BuildOrderContext(order, company, statusCode, storefrontURL)

	ctx["customerName"] = shipment.CustomerName
	ctx["customerEmail"] = shipment.CustomerEmail
	ctx["trackingNumber"] = shipment.TrackingNumber
	ctx["carrier"] = shipment.Carrier
	ctx["trackingLink"] = carrierTrackingLink(shipment.Carrier, shipment.TrackingNumber, storefrontURL)
	ctx["shipmentDate"] = FormatDate(shipment.UpdatedAt)
	return ctx
}

// WithTracking returns a copy of the context whose outbound links are
// wrapped by the given LinkBuilder and which carries the open-pixel tag and
// pre-filled feedback links. The receiver is not mutated: the plain-text
// rendering keeps using the original URLs.
func (c Context) WithTracking(lb *tracking.LinkBuilder) Context {
	out := c.wrapLinks(lb)
	out["trackingPixel"] = lb.PixelTag()
	out["feedbackLinkGood"] = lb.FeedbackURL(5)
	out["feedbackLinkBad"] = lb.FeedbackURL(1)
	return out
}

// wrapLinks copies the context, routing every URL-valued string through the
// click redirector. List entries get only their URL fields wrapped, no
// pixel or feedback keys.
func (c Context) wrapLinks(lb *tracking.LinkBuilder) Context {
	out := make(Context, len(c)+3)
	for k, v := range c {
		switch val := v.(type) {
		case string:
			if isHTTPURL(val) {
				out[k] = lb.Click(val)
			} else {
				out[k] = val
			}
		case []Context:
			wrapped := make([]Context, len(val))
			for i, item := range val {
				wrapped[i] = item.wrapLinks(lb)
			}
			out[k] = wrapped
		default:
			out[k] = v
		}
	}
	return out
}

// buildProducts maps line items into template-ready entries: truncated
// description, per-line subtotal, and a product deep link.
func buildProducts(items []types.OrderItem, storefrontURL string) []Context {
	products := make([]Context, 0, len(items))
	base := strings.TrimSuffix(storefrontURL, "/")
	for _, item := range items {
		products = append(products, Context{
			"name":        item.Name,
			"description": TruncateDescription(item.Description),
			"quantity":    item.Quantity,
			"price":       FormatAmount(item.Price),
			"subtotal":    FormatAmount(float64(item.Quantity) * item.Price),
			"url":         base + "/products/" + url.PathEscape(item.ProductID),
		})
	}
	return products
}

// addCompanyFields copies the company profile into the context. The zero
// CompanyInfo yields empty strings for every field.
func addCompanyFields(ctx Context, company types.CompanyInfo) {
	ctx["companyName"] = company.Name
	ctx["companyEmail"] = company.Email
	ctx["companyPhone"] = company.Phone
	ctx["companyAddress"] = company.Address
	ctx["companyWebsite"] = company.Website
}

// contactLink builds the pre-filled support link. With a company phone it is
// a WhatsApp deep link; otherwise a mailto fallback. Every interpolated
// value is percent-encoded before insertion.
func contactLink(company types.CompanyInfo, orderNumber, statusTitle, orderDate, total string) string {
	message := fmt.Sprintf(
		"Bună ziua! Am o întrebare despre comanda %s (%s, %s, total %s).",
		orderNumber, statusTitle, orderDate, total,
	)

	if company.Phone != "" {
		phone := strings.TrimPrefix(strings.ReplaceAll(company.Phone, " ", ""), "+")
		return "https://wa.me/" + url.PathEscape(phone) + "?text=" + percentEncode(message)
	}
	if company.Email != "" {
		return "mailto:" + company.Email +
			"?subject=" + percentEncode("Comanda "+orderNumber) +
			"&body=" + percentEncode(message)
	}
	return ""
}

// carrierTrackingLink returns the carrier's public AWB tracking page, or the
// storefront's own tracking page for unrecognized carriers.
func carrierTrackingLink(carrier, awb, storefrontURL string) string {
	switch strings.ToLower(strings.TrimSpace(carrier)) {
	case "fan courier", "fancourier":
		return "https://www.fancourier.ro/awb-tracking/?awb=" + url.QueryEscape(awb)
	case "sameday":
		return "https://sameday.ro/#awb=" + url.QueryEscape(awb)
	case "cargus":
		return "https://www.cargus.ro/en/track-your-parcel/?tracking_id=" + url.QueryEscape(awb)
	case "dpd":
		return "https://tracking.dpd.ro/?shipmentNumber=" + url.QueryEscape(awb)
	default:
		return strings.TrimSuffix(storefrontURL, "/") + "/tracking?awb=" + url.QueryEscape(awb)
	}
}

// OrderNumber derives the customer-facing order token: the first eight
// characters of the order id, uppercased.
func OrderNumber(orderID string) string {
	cleaned := strings.ReplaceAll(orderID, "-", "")
	runes := []rune(cleaned)
	if len(runes) > 8 {
		runes = runes[:8]
	}
	return strings.ToUpper(string(runes))
}

// FormatAmount renders a monetary value with exactly two decimals.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatDate renders a timestamp as a Romanian long date, e.g.
// "3 martie 2026".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), romanianMonths[t.Month()-1], t.Year())
}

// TruncateDescription cuts a description at the soft cap and appends an
// ellipsis. Descriptions at or under the cap pass through unmodified.
// Truncation counts runes so multi-byte text is never split mid-character.
func TruncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= descriptionCap {
		return s
	}
	return string(runes[:descriptionCap]) + "…"
}

// percentEncode escapes a string for use in a query value, using %20 rather
// than '+' for spaces so the result is valid in any URL position.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// isHTTPURL reports whether the value looks like an absolute web URL.
func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
