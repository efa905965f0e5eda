// Package notify renders order confirmations for chat delivery.
package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Indonesian)

// Rupiah formats an amount the way receipts show it, e.g. "Rp 12.345".
func Rupiah(amount int64) string {
	return "Rp " + printer.Sprintf("%d", amount)
}

// Message is the confirmation text a customer sends to the shop.
func Message(event domain.OrderPlacedEvent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Halo Kak, saya *%s* mau pesan (Order #%s):\n\n", event.CustomerName, event.OrderID)
	for _, l := range event.Lines {
		fmt.Fprintf(&b, "- %s x%d (%s)\n", l.Name, l.Quantity, Rupiah(l.LineTotal))
	}
	fmt.Fprintf(&b, "\n*Total: %s*\n\nTerima Kasih!", Rupiah(event.FinalTotal))

	return b.String()
}

// WhatsAppLink builds a wa.me deep link that opens a chat with phone and the
// order message prefilled.
func WhatsAppLink(phone string, event domain.OrderPlacedEvent) string {
	text := strings.ReplaceAll(url.QueryEscape(Message(event)), "+", "%20")
	return "https://wa.me/" + NormalizePhone(phone) + "?text=" + text
}

// NormalizePhone keeps digits only and rewrites a local 0 prefix to the 62
// country code.
func NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if strings.HasPrefix(digits, "0") {
		digits = "62" + digits[1:]
	}
	return digits
}
