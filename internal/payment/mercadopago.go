package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

const (
	statusApproved = "approved"

	// callTimeout caps one API call, breaker included.
	callTimeout = 20 * time.Second
)

// MercadoPago charges a tokenized card through the MercadoPago API. Calls
// go through a circuit breaker so an outage fails fast instead of holding
// requests open.
type MercadoPago struct {
	client  mppayment.Client
	breaker *gobreaker.CircuitBreaker[*mppayment.Response]
	log     *zap.Logger
	onCall  func(result string)
	timeout time.Duration
}

func NewMercadoPago(accessToken string, log *zap.Logger, onCall func(result string)) (*MercadoPago, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker[*mppayment.Response](gobreaker.Settings{
		Name:        "mercadopago",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &MercadoPago{
		client:  mppayment.NewClient(cfg),
		breaker: breaker,
		log:     log,
		onCall:  onCall,
		timeout: callTimeout,
	}, nil
}

// Timeout is the deadline Charge puts on each call.
func (g *MercadoPago) Timeout() time.Duration {
	return g.timeout
}

func (g *MercadoPago) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if req.CardToken == "" {
		return ChargeResult{}, httperr.ErrBusiness(httperr.CodeInvalidRequest)
	}
	installments := req.Installments
	if installments <= 0 {
		installments = 1
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.breaker.Execute(func() (*mppayment.Response, error) {
		return g.client.Create(ctx, mppayment.Request{
			TransactionAmount: req.Amount,
			Token:             req.CardToken,
			PaymentMethodID:   req.PaymentMethodID,
			Installments:      installments,
			Description:       req.Description,
			ExternalReference: "appointment-" + strconv.FormatUint(uint64(req.AppointmentID), 10),
			Payer: &mppayment.PayerRequest{
				Email: req.PayerEmail,
			},
		})
	})
	if err != nil {
		g.record("error")
		g.log.Error("mercadopago charge failed",
			zap.Uint("appointment_id", req.AppointmentID),
			zap.Error(err),
		)
		return ChargeResult{}, httperr.ErrBusiness(httperr.CodePaymentFailed)
	}

	if resp.Status != statusApproved {
		g.record(resp.Status)
		g.log.Info("mercadopago charge not approved",
			zap.Uint("appointment_id", req.AppointmentID),
			zap.String("status", resp.Status),
			zap.String("status_detail", resp.StatusDetail),
		)
		return ChargeResult{}, httperr.ErrBusiness(httperr.CodePaymentFailed)
	}
	g.record(statusApproved)

	extra, _ := json.Marshal(map[string]any{
		"status_detail":     resp.StatusDetail,
		"payment_method_id": resp.PaymentMethodID,
	})
	gatewayID := strconv.Itoa(resp.ID)

	return ChargeResult{
		TransactionID: "MP-" + gatewayID,
		Details: models.PaymentDetails{
			Processor:     models.MethodMercadoPago,
			PaidBy:        req.PaidBy,
			GatewayStatus: resp.Status,
			GatewayID:     gatewayID,
			Extra:         extra,
		},
	}, nil
}

func (g *MercadoPago) record(result string) {
	if g.onCall != nil {
		g.onCall(result)
	}
}
