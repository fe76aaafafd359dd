package orders

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/mateoherrera/threadline-backend/pkg/config"
	"github.com/mateoherrera/threadline-backend/pkg/enums"
	pkgerrors "github.com/mateoherrera/threadline-backend/pkg/errors"
)

func buildTestGateway(seed int64) *SimulatedGateway {
	gw := NewSimulatedGateway(config.PaymentsConfig{MinDelay: 0, MaxDelay: 0}, nil)
	gw.rand = rand.New(rand.NewSource(seed))
	gw.sleep = func(context.Context, time.Duration) error { return nil }
	return gw
}

func TestChargeRejectsCOD(t *testing.T) {
	gw := buildTestGateway(1)
	_, err := gw.Charge(context.Background(), enums.PaymentMethodCOD, 1000)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidMethod {
		t.Fatalf("expected invalid method for cod, got %v", err)
	}
}

func TestChargeRejectsNonPositiveAmount(t *testing.T) {
	gw := buildTestGateway(1)
	_, err := gw.Charge(context.Background(), enums.PaymentMethodCard, 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
}

func TestChargeOutcomes(t *testing.T) {
	gw := buildTestGateway(42)

	result, err := gw.Charge(context.Background(), enums.PaymentMethodCard, 2500)
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if result.Succeeded {
		if result.TransactionID == "" || !strings.HasPrefix(result.TransactionID, "TXN-CARD-") {
			t.Fatalf("expected a card transaction id, got %q", result.TransactionID)
		}
	} else if result.Reason == "" {
		t.Fatal("failed charges must carry a decline reason")
	}
}

func TestChargeSuccessRatesAreRoughlyHonored(t *testing.T) {
	cases := []struct {
		method enums.PaymentMethod
		rate   float64
	}{
		{enums.PaymentMethodCard, 0.90},
		{enums.PaymentMethodUPI, 0.95},
		{enums.PaymentMethodWallet, 0.92},
	}

	for _, tc := range cases {
		gw := buildTestGateway(7)
		const runs = 2000
		succeeded := 0
		for i := 0; i < runs; i++ {
			result, err := gw.Charge(context.Background(), tc.method, 1000)
			if err != nil {
				t.Fatalf("%s charge %d: %v", tc.method, i, err)
			}
			if result.Succeeded {
				succeeded++
			}
		}
		got := float64(succeeded) / runs
		if got < tc.rate-0.03 || got > tc.rate+0.03 {
			t.Fatalf("%s success rate %.3f outside %.2f±0.03", tc.method, got, tc.rate)
		}
	}
}

func TestChargeHonorsContextCancellation(t *testing.T) {
	gw := NewSimulatedGateway(config.PaymentsConfig{
		MinDelay: 50 * time.Millisecond,
		MaxDelay: 100 * time.Millisecond,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.Charge(ctx, enums.PaymentMethodCard, 1000)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error on cancelled context, got %v", err)
	}
}
