package orders

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mateoherrera/threadline-backend/pkg/config"
	"github.com/mateoherrera/threadline-backend/pkg/enums"
	pkgerrors "github.com/mateoherrera/threadline-backend/pkg/errors"
	"github.com/mateoherrera/threadline-backend/pkg/metrics"
)

// ChargeResult reports the outcome of a gateway call.
type ChargeResult struct {
	Succeeded     bool
	TransactionID string
	Reason        string
}

// Gateway charges an order total against a payment method.
type Gateway interface {
	Charge(ctx context.Context, method enums.PaymentMethod, amountCents int) (*ChargeResult, error)
}

// Per-method success rates of the simulated processor.
var successRates = map[enums.PaymentMethod]float64{
	enums.PaymentMethodCard:   0.90,
	enums.PaymentMethodUPI:    0.95,
	enums.PaymentMethodWallet: 0.92,
}

var declineReasons = []string{
	"declined by issuing bank",
	"insufficient funds",
	"processor timeout",
}

// SimulatedGateway mimics an external payment processor: a randomized
// delay, per-method success rates, and opaque transaction IDs. Randomness
// and sleeping are injectable for tests.
type SimulatedGateway struct {
	cfg   config.PaymentsConfig
	stats *metrics.PaymentMetrics

	mu    sync.Mutex
	rand  *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSimulatedGateway builds a gateway seeded from the wall clock. A nil
// metrics handle disables instrumentation.
func NewSimulatedGateway(cfg config.PaymentsConfig, stats *metrics.PaymentMetrics) *SimulatedGateway {
	return &SimulatedGateway{
		cfg:   cfg,
		stats: stats,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
	}
}

// Charge simulates processing the amount with the given method. COD never
// reaches the gateway; it is collected on delivery.
func (g *SimulatedGateway) Charge(ctx context.Context, method enums.PaymentMethod, amountCents int) (*ChargeResult, error) {
	rate, ok := successRates[method]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidMethod, "payment method not supported for online payment")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}

	start := time.Now()
	if err := g.sleep(ctx, g.delay()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway interrupted")
	}
	g.stats.ObserveDuration(method.String(), time.Since(start))

	roll, pick := g.roll()
	if roll >= rate {
		g.stats.IncFailure(method.String())
		return &ChargeResult{
			Succeeded: false,
			Reason:    declineReasons[pick%len(declineReasons)],
		}, nil
	}

	g.stats.IncSuccess(method.String())
	return &ChargeResult{
		Succeeded:     true,
		TransactionID: newTransactionID(method),
	}, nil
}

func (g *SimulatedGateway) delay() time.Duration {
	min, max := g.cfg.MinDelay, g.cfg.MaxDelay
	if max <= min {
		return min
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return min + time.Duration(g.rand.Int63n(int64(max-min)))
}

func (g *SimulatedGateway) roll() (float64, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rand.Float64(), g.rand.Intn(len(declineReasons))
}

func newTransactionID(method enums.PaymentMethod) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return fmt.Sprintf("TXN-%s-%s", strings.ToUpper(method.String()), suffix)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
