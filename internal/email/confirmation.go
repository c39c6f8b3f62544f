package email

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reservatuscanchas/canchas/internal/booking"
	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
)

const confirmationEmailTimeout = 5 * time.Second

// ConfirmationNotifier emails customers when their reservation is confirmed.
// Sends run in the background; failures are logged and never reach the
// payment flow.
type ConfirmationNotifier struct {
	queries *dbgen.Queries
	sender  EmailSender
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewConfirmationNotifier(queries *dbgen.Queries, sender EmailSender) *ConfirmationNotifier {
	return &ConfirmationNotifier{
		queries: queries,
		sender:  sender,
		timeout: confirmationEmailTimeout,
	}
}

// ReservationConfirmed implements booking.Notifier.
func (n *ConfirmationNotifier) ReservationConfirmed(ctx context.Context, res booking.Reservation) {
	if n == nil || n.sender == nil {
		return
	}
	recipient := strings.TrimSpace(res.Customer.Email)
	if recipient == "" {
		return
	}

	details := ConfirmationDetails{
		CustomerName: res.Customer.Name,
		Date:         res.Date,
		Start:        res.Start,
		End:          res.End,
		Code:         res.Code,
		TotalPrice:   res.TotalPrice,
		AmountPaid:   res.AmountPaid,
	}
	if n.queries != nil {
		court, err := n.queries.GetCourtWithVenue(ctx, res.CourtID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("court_id", res.CourtID).Msg("Failed to load court for confirmation email")
		} else {
			details.CourtName = court.Name
			details.VenueName = court.VenueName
		}
	}
	message := BuildReservationConfirmation(details)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := newEmailContext(ctx, n.timeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, recipient, message.Subject, message.Body); err != nil {
			log.Ctx(sendCtx).Error().Err(err).Str("reservation_code", res.Code).Msg("Failed to send confirmation email")
			return
		}
		log.Ctx(sendCtx).Info().Str("reservation_code", res.Code).Msg("Confirmation email sent")
	}()
}

// Wait blocks until in-flight sends finish. Used on shutdown.
func (n *ConfirmationNotifier) Wait() {
	n.wg.Wait()
}
