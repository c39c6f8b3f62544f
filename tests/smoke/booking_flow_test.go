//go:build smoke

package smoke

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/reservatuscanchas/canchas/internal/db"
	"github.com/reservatuscanchas/canchas/internal/testutil"
)

const smokeAdminKey = "smoke-admin-key"

type smokeClient struct {
	t       *testing.T
	baseURL string
	http    *http.Client
}

func (c smokeClient) do(method, path string, body any, adminKey string, wantStatus int, out any) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal %s %s: %v", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		c.t.Fatalf("build %s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if adminKey != "" {
		req.Header.Set("Authorization", "Bearer "+adminKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		c.t.Fatalf("%s %s: status %d, want %d\n%s", method, path, resp.StatusCode, wantStatus, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.t.Fatalf("decode %s %s: %v\n%s", method, path, err, raw)
		}
	}
}

func TestBookingFlowSmoke(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(smokeAdminKey), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash admin key: %v", err)
	}

	var courtID int64
	srv := startServer(t, []string{"ADMIN_API_KEY_HASH=" + string(hash)}, func(dbPath string) {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			t.Fatalf("create db dir: %v", err)
		}
		database, err := db.New(dbPath)
		if err != nil {
			t.Fatalf("open seed db: %v", err)
		}
		defer database.Close()
		courtID = testutil.SeedCatalog(t, database).Court.ID
	})
	client := smokeClient{t: t, baseURL: srv.baseURL, http: &http.Client{Timeout: 5 * time.Second}}

	santiago, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	date := time.Now().In(santiago).AddDate(0, 0, 2).Format("2006-01-02")

	var availability struct {
		Slots []struct {
			Start     string `json:"start"`
			Available bool   `json:"available"`
		} `json:"slots"`
	}
	client.do(http.MethodGet, "/api/v1/availability?court_id="+strconv.FormatInt(courtID, 10)+"&date="+date, nil, "", http.StatusOK, &availability)
	if len(availability.Slots) == 0 {
		t.Fatalf("expected slots for %s", date)
	}

	var hold struct {
		ID         string `json:"hold_id"`
		TotalPrice int64  `json:"total_price"`
	}
	client.do(http.MethodPost, "/api/v1/holds", map[string]any{
		"court_id":   courtID,
		"date":       date,
		"start":      "10:00",
		"end":        "11:00",
		"session_id": "smoke-session",
		"customer":   map[string]string{"name": "Smoke", "email": "smoke@example.cl"},
	}, "", http.StatusCreated, &hold)
	if hold.ID == "" || hold.TotalPrice != 20000 {
		t.Fatalf("unexpected hold %+v", hold)
	}

	var pending struct {
		Code   string `json:"reservation_code"`
		Status string `json:"status"`
	}
	client.do(http.MethodPost, "/api/v1/reservations/confirm", map[string]string{
		"hold_id":           hold.ID,
		"payment_reference": "smoke-pay-1",
	}, "", http.StatusOK, &pending)
	if pending.Code == "" || pending.Status != "pending" {
		t.Fatalf("unexpected reservation %+v", pending)
	}

	var confirmed struct {
		Status     string `json:"status"`
		AmountPaid int64  `json:"amount_paid"`
	}
	client.do(http.MethodPost, "/api/v1/payments/webhook", map[string]string{
		"reservation_code":  pending.Code,
		"payment_reference": "smoke-pay-1",
		"status":            "approved",
	}, "", http.StatusOK, &confirmed)
	if confirmed.Status != "confirmed" || confirmed.AmountPaid != 20000 {
		t.Fatalf("unexpected confirmation %+v", confirmed)
	}

	client.do(http.MethodGet, "/api/v1/admin/deposits?date="+date, nil, "", http.StatusUnauthorized, nil)

	var deposits struct {
		Created []struct {
			NetDepositAmount int64 `json:"net_deposit_amount"`
		} `json:"created"`
	}
	client.do(http.MethodPost, "/api/v1/admin/deposits/generate", map[string]string{"date": date}, smokeAdminKey, http.StatusOK, &deposits)
	if len(deposits.Created) != 1 || deposits.Created[0].NetDepositAmount != 19167 {
		t.Fatalf("unexpected deposits %+v", deposits)
	}
}
