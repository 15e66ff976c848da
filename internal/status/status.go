// Package status maps storefront lifecycle status codes to customer-facing
// display content (emoji, title, message). The mapping is a closed enum with
// an explicit unknown arm: lookups never fail, unknown codes produce a
// generic update built from the raw code.
package status

import (
	"fmt"
	"strings"
)

// Code is a known lifecycle status.
type Code string

const (
	Pending        Code = "pending"
	Confirmed      Code = "confirmed"
	Processing     Code = "processing"
	Shipped        Code = "shipped"
	InTransit      Code = "in_transit"
	OutForDelivery Code = "out_for_delivery"
	Delivered      Code = "delivered"
	Cancelled      Code = "cancelled"
	Refunded       Code = "refunded"
	Returned       Code = "returned"
)

// Info is the display content for a status code.
type Info struct {
	Emoji   string `json:"emoji"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Lookup returns the display content for a raw status code. Codes are
// normalized (case, surrounding space, dash/space separators) before
// matching. Unknown codes fall through to a generic update that carries the
// raw code; Lookup never fails.
func Lookup(raw string) Info {
	switch normalize(raw) {
	case Pending:
		return Info{
			Emoji:   "⏳",
			Title:   "Comandă În Așteptare",
			Message: "Comanda ta a fost înregistrată și așteaptă confirmarea.",
		}
	case Confirmed:
		return Info{
			Emoji:   "✅",
			Title:   "Comandă Confirmată",
			Message: "Comanda ta a fost confirmată și va fi procesată în curând.",
		}
	case Processing:
		return Info{
			Emoji:   "📦",
			Title:   "Comandă În Procesare",
			Message: "Comanda ta este în curs de pregătire.",
		}
	case Shipped:
		return Info{
			Emoji:   "🚚",
			Title:   "Comandă Expediată",
			Message: "Comanda ta a fost predată curierului.",
		}
	case InTransit:
		return Info{
			Emoji:   "🛣️",
			Title:   "Colet În Tranzit",
			Message: "Coletul tău este în drum spre tine.",
		}
	case OutForDelivery:
		return Info{
			Emoji:   "🏃",
			Title:   "Colet În Curs de Livrare",
			Message: "Curierul livrează coletul tău astăzi.",
		}
	case Delivered:
		return Info{
			Emoji:   "🎉",
			Title:   "Comandă Livrată",
			Message: "Comanda ta a fost livrată. Îți mulțumim pentru încredere!",
		}
	case Cancelled:
		return Info{
			Emoji:   "❌",
			Title:   "Comandă Anulată",
			Message: "Comanda ta a fost anulată.",
		}
	case Refunded:
		return Info{
			Emoji:   "💸",
			Title:   "Comandă Rambursată",
			Message: "Am procesat rambursarea comenzii tale.",
		}
	case Returned:
		return Info{
			Emoji:   "↩️",
			Title:   "Comandă Returnată",
			Message: "Returul comenzii tale a fost înregistrat.",
		}
	default:
		// Unknown arm: generic content built from the raw code.
		return Info{
			Emoji:   "📋",
			Title:   "Actualizare Comandă",
			Message: fmt.Sprintf("Starea comenzii tale a fost actualizată: %s.", strings.TrimSpace(raw)),
		}
	}
}

// Known reports whether the raw code normalizes to a known status.
func Known(raw string) bool {
	switch normalize(raw) {
	case Pending, Confirmed, Processing, Shipped, InTransit,
		OutForDelivery, Delivered, Cancelled, Refunded, Returned:
		return true
	default:
		return false
	}
}

// normalize lowercases the code and unifies dash/space separators so
// "Out For Delivery" and "out-for-delivery" both match out_for_delivery.
func normalize(raw string) Code {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return Code(s)
}
