// internal/app/system/whatsapp/whatsapp.go

// Package whatsapp builds the wa.me deep links the storefront hands off to.
// Every "send" in KOASA is a pre-filled message the user (or admin) fires
// from their own WhatsApp client; the server never talks to WhatsApp
// directly.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Customer identifies the person an order recap is about.
type Customer struct {
	Name  string
	Phone string
	Email string
}

// Line is one order line in a recap message.
type Line struct {
	Name      string
	Quantity  float64
	Unit      string
	UnitPrice float64
}

// Subtotal returns unit price × quantity.
func (l Line) Subtotal() float64 { return l.UnitPrice * l.Quantity }

// OrderRecap is everything the admin needs to prepare an order.
type OrderRecap struct {
	OrderID         string
	Customer        Customer
	Lines           []Line
	Total           float64
	DeliveryAddress string
	Notes           string
	When            time.Time
}

// OrderLink returns the wa.me link that opens the admin chat with the full
// order recap pre-filled.
func OrderLink(adminPhone string, r OrderRecap) string {
	lines := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		unit := l.Unit
		if unit == "" {
			unit = "unité"
		}
		lines = append(lines, fmt.Sprintf("• %s - %s %s x %s FCFA = %s FCFA",
			l.Name, formatQuantity(l.Quantity), unit,
			FormatFCFA(l.UnitPrice), FormatFCFA(l.Subtotal())))
	}

	address := r.DeliveryAddress
	if address == "" {
		address = "À confirmer avec le client"
	}
	notes := r.Notes
	if notes == "" {
		notes = "Aucune note"
	}

	message := fmt.Sprintf(`
🛒 NOUVELLE COMMANDE KOASA

📋 ID COMMANDE: %s

👤 CLIENT:
Nom: %s
Téléphone: %s
Email: %s

📦 DÉTAILS DE LA COMMANDE:
%s

💰 TOTAL: %s FCFA

📍 ADRESSE DE LIVRAISON:
%s

📝 NOTES:
%s

⏰ Date: %s

Merci de préparer cette commande! 🥩
`,
		r.OrderID,
		r.Customer.Name, r.Customer.Phone, r.Customer.Email,
		strings.Join(lines, "\n"),
		FormatFCFA(r.Total),
		address,
		notes,
		r.When.Format("02/01/2006 15:04"))

	return Link(adminPhone, message)
}

// ActivationLink returns the wa.me link a customer uses to send their
// activation token to the admin for WhatsApp verification.
func ActivationLink(adminPhone, customerName, customerPhone, token string) string {
	message := fmt.Sprintf(`
🔐 KOASA - Activation WhatsApp

Bonjour Admin KOASA,

Je suis %s et je souhaite vérifier mon WhatsApp.

Mon token d'activation est :
%s

Mon numéro: %s

Merci de vérifier mon WhatsApp!
`, customerName, token, customerPhone)

	return Link(adminPhone, message)
}

// OTPLink returns the wa.me link the admin uses to send a verification code
// to a customer.
func OTPLink(customerPhone, firstName, code string) string {
	message := fmt.Sprintf(`
🔐 KOASA - Code de vérification WhatsApp

Bonjour %s,

Votre code de vérification:
%s

⏱️ Valide pendant 10 minutes.

Ne partagez ce code avec personne!
`, firstName, code)

	return Link(customerPhone, message)
}

// Link returns https://wa.me/<phone>?text=<urlencoded message>.
// wa.me wants the number as bare digits in international format, so the
// leading + and any separators are stripped.
func Link(phone, message string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return "https://wa.me/" + digits.String() + "?text=" + url.QueryEscape(message)
}

// FormatFCFA renders an amount with thousands separators and no decimals,
// e.g. 1234567.8 → "1,234,568".
func FormatFCFA(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func formatQuantity(q float64) string {
	s := fmt.Sprintf("%g", q)
	return s
}
