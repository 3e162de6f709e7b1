// Package payment charges customers for appointments.
package payment

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ChargeRequest struct {
	AppointmentID uint
	Amount        float64
	Method        string
	Description   string
	PaidBy        uint

	// Online card data, only read by gateways that need it.
	CardToken       string
	PaymentMethodID string
	Installments    int
	PayerEmail      string
}

type ChargeResult struct {
	TransactionID string
	Details       models.PaymentDetails
}

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// DefaultChargeTimeout bounds a charge on gateways that do not state their
// own deadline.
const DefaultChargeTimeout = 15 * time.Second

// ChargeTimeout returns the longest a single Charge on g may take.
func ChargeTimeout(g Gateway) time.Duration {
	if t, ok := g.(interface{ Timeout() time.Duration }); ok && t.Timeout() > 0 {
		return t.Timeout()
	}
	return DefaultChargeTimeout
}

// ValidMethod reports whether m is an accepted payment method.
func ValidMethod(m string) bool {
	switch m {
	case models.MethodCard, models.MethodCash, models.MethodWallet,
		models.MethodInsurance, models.MethodBankTransfer, models.MethodMercadoPago:
		return true
	}
	return false
}

// Round2 rounds half away from zero to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Offline records payments taken outside the system (cash desk, card
// terminal, insurer) under a generated reference.
type Offline struct{}

func (Offline) Charge(_ context.Context, req ChargeRequest) (ChargeResult, error) {
	extra, _ := json.Marshal(map[string]string{"method": req.Method})
	return ChargeResult{
		TransactionID: "TXID-" + shortHex(8),
		Details: models.PaymentDetails{
			Processor: "offline",
			PaidBy:    req.PaidBy,
			Extra:     extra,
		},
	}, nil
}

// Router sends each method to its gateway, falling back to Default.
type Router struct {
	Default Gateway
	Methods map[string]Gateway
}

func (r *Router) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if g, ok := r.Methods[req.Method]; ok {
		return g.Charge(ctx, req)
	}
	return r.Default.Charge(ctx, req)
}

func shortHex(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// InvoiceNumber builds INV-YYYYMMDD-xxxxxx for the given date.
func InvoiceNumber(date string) string {
	return "INV-" + date + "-" + shortHex(6)
}
