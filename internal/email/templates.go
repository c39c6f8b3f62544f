package email

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type ConfirmationEmail struct {
	Subject string
	Body    string
}

type ConfirmationDetails struct {
	CustomerName string
	VenueName    string
	CourtName    string
	Date         string
	Start        string
	End          string
	Code         string
	TotalPrice   int64
	AmountPaid   int64
}

var pesoPrinter = message.NewPrinter(language.Spanish)

// FormatPesos renders an amount the way Chilean prices are written: $20.000.
func FormatPesos(amount int64) string {
	if amount < 0 {
		return "-$" + pesoPrinter.Sprintf("%d", -amount)
	}
	return "$" + pesoPrinter.Sprintf("%d", amount)
}

// BuildReservationConfirmation renders the customer email sent once a
// reservation's payment is approved.
func BuildReservationConfirmation(details ConfirmationDetails) ConfirmationEmail {
	venueName := strings.TrimSpace(details.VenueName)
	if venueName == "" {
		venueName = "el complejo"
	}
	courtName := strings.TrimSpace(details.CourtName)
	if courtName == "" {
		courtName = "Por confirmar"
	}

	subject := fmt.Sprintf("Reserva confirmada %s - %s", details.Code, venueName)

	greeting := "Hola,"
	if name := strings.TrimSpace(details.CustomerName); name != "" {
		greeting = fmt.Sprintf("Hola %s,", name)
	}

	lines := []string{
		greeting,
		"",
		"Tu reserva está confirmada.",
		"",
		fmt.Sprintf("Código: %s", details.Code),
		fmt.Sprintf("Complejo: %s", venueName),
		fmt.Sprintf("Cancha: %s", courtName),
		fmt.Sprintf("Fecha: %s", strings.TrimSpace(details.Date)),
		fmt.Sprintf("Horario: %s - %s", details.Start, details.End),
		fmt.Sprintf("Total: %s", FormatPesos(details.TotalPrice)),
	}
	if details.AmountPaid > 0 && details.AmountPaid < details.TotalPrice {
		lines = append(lines,
			fmt.Sprintf("Pagado: %s", FormatPesos(details.AmountPaid)),
			fmt.Sprintf("Saldo a pagar en el complejo: %s", FormatPesos(details.TotalPrice-details.AmountPaid)),
		)
	}
	lines = append(lines, "", "Presenta tu código al llegar.")

	return ConfirmationEmail{
		Subject: subject,
		Body:    strings.Join(lines, "\n"),
	}
}
