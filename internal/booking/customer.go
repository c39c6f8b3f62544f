package booking

import (
	"net/mail"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const maxCustomerNameLength = 120

// Customer is the contact data captured at checkout. All fields are optional
// on a hold; whatever is present must be valid.
type Customer struct {
	Name  string `json:"name,omitempty"`
	RUT   string `json:"rut,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// normalizeCustomer trims every field, canonicalizes the RUT to NNNNNNNN-D and
// the phone number to E.164 using region as the default country.
func normalizeCustomer(c Customer, region string) (Customer, error) {
	out := Customer{
		Name:  strings.TrimSpace(c.Name),
		RUT:   strings.TrimSpace(c.RUT),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}

	if len(out.Name) > maxCustomerNameLength {
		return Customer{}, invalidInput("customer.name", "is too long")
	}

	if out.RUT != "" {
		rut, ok := NormalizeRUT(out.RUT)
		if !ok {
			return Customer{}, invalidInput("customer.rut", "is not a valid RUT")
		}
		out.RUT = rut
	}

	if out.Email != "" {
		addr, err := mail.ParseAddress(out.Email)
		if err != nil || addr.Address != out.Email || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
			return Customer{}, invalidInput("customer.email", "is not a valid email address")
		}
		out.Email = strings.ToLower(addr.Address)
	}

	if out.Phone != "" {
		if region == "" {
			region = "CL"
		}
		num, err := phonenumbers.Parse(out.Phone, region)
		if err != nil || !phonenumbers.IsValidNumber(num) {
			return Customer{}, invalidInput("customer.phone", "is not a valid phone number")
		}
		out.Phone = phonenumbers.Format(num, phonenumbers.E164)
	}

	return out, nil
}

// NormalizeRUT validates a Chilean RUT (modulo 11 check digit) and returns
// it without dots, with an upper-case check digit: "12345678-5".
func NormalizeRUT(raw string) (string, bool) {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), ".", ""))
	body, dv, ok := strings.Cut(cleaned, "-")
	if !ok || len(dv) != 1 || len(body) < 6 || len(body) > 9 {
		return "", false
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if rutCheckDigit(body) != dv {
		return "", false
	}
	return body + "-" + dv, true
}

func rutCheckDigit(body string) string {
	sum := 0
	factor := 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch dv := 11 - sum%11; dv {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return string(rune('0' + dv))
	}
}
