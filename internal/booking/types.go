package booking

import (
	"time"

	dbgen "github.com/reservatuscanchas/canchas/internal/db/generated"
)

// Reservation statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Actor recorded in the status log for transitions the system makes itself.
const SystemActor = "system"

type Slot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Availability struct {
	CourtID     int64       `json:"court_id"`
	Date        string      `json:"date"`
	SlotMinutes int         `json:"slot_minutes"`
	Slots       []Slot      `json:"slots"`
	Occupied    []TimeRange `json:"occupied"`

	validUntil time.Time
}

// ValidUntil is when the earliest active hold counted in a lapses, or the
// zero time when no hold is counted. Past it the grid may be stale.
func (a Availability) ValidUntil() time.Time {
	return a.validUntil
}

type HoldRequest struct {
	CourtID   int64
	Date      string
	Start     string
	End       string
	SessionID string
	Customer  Customer
}

type Hold struct {
	ID              string    `json:"hold_id"`
	CourtID         int64     `json:"court_id"`
	Date            string    `json:"date"`
	Start           string    `json:"start"`
	End             string    `json:"end"`
	SessionID       string    `json:"-"`
	Customer        Customer  `json:"customer"`
	TotalPrice      int64     `json:"total_price"`
	ReservationCode string    `json:"reservation_code,omitempty"`
	ExpiresAt       time.Time `json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
}

type Reservation struct {
	ID               int64     `json:"id"`
	CourtID          int64     `json:"court_id"`
	HoldID           string    `json:"hold_id,omitempty"`
	Date             string    `json:"date"`
	Start            string    `json:"start"`
	End              string    `json:"end"`
	Customer         Customer  `json:"customer"`
	Code             string    `json:"reservation_code"`
	Status           string    `json:"status"`
	TotalPrice       int64     `json:"total_price"`
	AmountPaid       int64     `json:"amount_paid"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	DepositID        int64     `json:"deposit_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type StatusChange struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func holdFromRow(row dbgen.TemporaryHold) Hold {
	return Hold{
		ID:        row.ID,
		CourtID:   row.CourtID,
		Date:      row.Date,
		Start:     row.StartTime,
		End:       row.EndTime,
		SessionID: row.SessionID,
		Customer: Customer{
			Name:  row.CustomerName,
			RUT:   row.CustomerRut,
			Email: row.CustomerEmail,
			Phone: row.CustomerPhone,
		},
		TotalPrice:      row.TotalPrice,
		ReservationCode: row.ReservationCode.String,
		ExpiresAt:       time.UnixMilli(row.ExpiresAt).UTC(),
		CreatedAt:       row.CreatedAt,
	}
}

func reservationFromRow(row dbgen.Reservation) Reservation {
	return Reservation{
		ID:      row.ID,
		CourtID: row.CourtID,
		HoldID:  row.HoldID.String,
		Date:    row.Date,
		Start:   row.StartTime,
		End:     row.EndTime,
		Customer: Customer{
			Name:  row.CustomerName,
			RUT:   row.CustomerRut,
			Email: row.CustomerEmail,
			Phone: row.CustomerPhone,
		},
		Code:             row.Code,
		Status:           row.Status,
		TotalPrice:       row.TotalPrice,
		AmountPaid:       row.AmountPaid,
		PaymentReference: row.PaymentReference,
		DepositID:        row.DepositID.Int64,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
