package orders

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	"github.com/mateoherrera/threadline-backend/pkg/enums"
	pkgerrors "github.com/mateoherrera/threadline-backend/pkg/errors"
	"github.com/mateoherrera/threadline-backend/pkg/types"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}[0-9A-F]{8}$`)

var testShipping = types.ShippingInfo{
	FullName:   "Mara Lin",
	Phone:      "555-0100",
	Line1:      "1 Main St",
	City:       "Austin",
	State:      "TX",
	PostalCode: "78701",
	Country:    "US",
}

func TestCreateCODOrderAddsSurchargeOnceAndConfirms(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	userID := uuid.New()
	repo.seedCart(userID, []models.CartItem{
		{ProductID: uuid.New(), Name: "Tee", UnitPriceCents: 2000, Quantity: 2, Size: "M", Color: "black"},
		{ProductID: uuid.New(), Name: "Hoodie", UnitPriceCents: 4500, Quantity: 1, Size: "L", Color: "gray"},
	})

	dto, err := svc.Create(context.Background(), userID, CreateOrderRequest{
		ShippingInfo:  testShipping,
		PaymentMethod: "cod",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if dto.SubtotalCents != 8500 {
		t.Fatalf("expected subtotal 8500, got %d", dto.SubtotalCents)
	}
	if dto.CODChargeCents != models.CODSurchargeCents {
		t.Fatalf("expected cod surcharge %d, got %d", models.CODSurchargeCents, dto.CODChargeCents)
	}
	if dto.TotalCents != 8500+models.CODSurchargeCents {
		t.Fatalf("unexpected total %d", dto.TotalCents)
	}
	if dto.Status != enums.OrderStatusConfirmed.String() {
		t.Fatalf("cod orders start confirmed, got %s", dto.Status)
	}
	if dto.PaymentStatus != enums.PaymentStatusPending.String() {
		t.Fatalf("payment always starts pending, got %s", dto.PaymentStatus)
	}
	if len(dto.StatusHistory) != 1 {
		t.Fatalf("expected seeded status history, got %d entries", len(dto.StatusHistory))
	}
	if !orderNumberPattern.MatchString(dto.OrderNumber) {
		t.Fatalf("unexpected order number %q", dto.OrderNumber)
	}
	if !repo.cartConverted {
		t.Fatal("active cart must be marked converted")
	}
}

func TestCreateCardOrderStartsPending(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	userID := uuid.New()
	repo.seedCart(userID, []models.CartItem{
		{ProductID: uuid.New(), Name: "Tee", UnitPriceCents: 2000, Quantity: 1, Size: "M", Color: "black"},
	})

	dto, err := svc.Create(context.Background(), userID, CreateOrderRequest{
		ShippingInfo:  testShipping,
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Status != enums.OrderStatusPending.String() {
		t.Fatalf("card orders start pending, got %s", dto.Status)
	}
	if dto.CODChargeCents != 0 {
		t.Fatalf("card orders carry no cod surcharge, got %d", dto.CODChargeCents)
	}
	if dto.EstimatedDelivery == nil {
		t.Fatal("expected an estimated delivery date")
	}
}

func TestCreateAppliesDiscountToTotal(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	userID := uuid.New()
	repo.seedCart(userID, []models.CartItem{
		{ProductID: uuid.New(), Name: "Tee", UnitPriceCents: 2000, Quantity: 2, Size: "M", Color: "black"},
		{ProductID: uuid.New(), Name: "Cap", UnitPriceCents: 1500, Quantity: 1, Size: "OS", Color: "red"},
	})

	dto, err := svc.Create(context.Background(), userID, CreateOrderRequest{
		ShippingInfo:  testShipping,
		PaymentMethod: "cod",
		DiscountCents: 500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if dto.SubtotalCents != 5500 {
		t.Fatalf("expected subtotal 5500, got %d", dto.SubtotalCents)
	}
	if dto.DiscountCents != 500 {
		t.Fatalf("expected discount 500, got %d", dto.DiscountCents)
	}
	want := 5500 - 500 + models.CODSurchargeCents
	if dto.TotalCents != want {
		t.Fatalf("expected total %d, got %d", want, dto.TotalCents)
	}
}

func TestCreateRejectsDiscountLargerThanSubtotal(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	userID := uuid.New()
	repo.seedCart(userID, []models.CartItem{
		{ProductID: uuid.New(), Name: "Tee", UnitPriceCents: 2000, Quantity: 1, Size: "M", Color: "black"},
	})

	_, err := svc.Create(context.Background(), userID, CreateOrderRequest{
		ShippingInfo:  testShipping,
		PaymentMethod: "card",
		DiscountCents: 2500,
	})
	assertOrderCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateRejectsEmptyCartAndBadTotals(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	userID := uuid.New()

	_, err := svc.Create(context.Background(), userID, CreateOrderRequest{
		ShippingInfo:  testShipping,
		PaymentMethod: "card",
	})
	assertOrderCode(t, err, pkgerrors.CodeValidation)

	repo.seedCart(userID, []models.CartItem{
		{ProductID: uuid.New(), Name: "Tee", UnitPriceCents: 2000, Quantity: 1, Size: "M", Color: "black"},
	})
	wrong := 999
	_, err = svc.Create(context.Background(), userID, CreateOrderRequest{
		ShippingInfo:     testShipping,
		PaymentMethod:    "card",
		ClientTotalCents: &wrong,
	})
	assertOrderCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateRejectsIncompleteShipping(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	userID := uuid.New()
	repo.seedCart(userID, []models.CartItem{
		{ProductID: uuid.New(), Name: "Tee", UnitPriceCents: 2000, Quantity: 1, Size: "M", Color: "black"},
	})

	incomplete := testShipping
	incomplete.PostalCode = ""
	_, err := svc.Create(context.Background(), userID, CreateOrderRequest{
		ShippingInfo:  incomplete,
		PaymentMethod: "card",
	})
	assertOrderCode(t, err, pkgerrors.CodeValidation)
}

func TestPaySuccessAdvancesPendingToConfirmed(t *testing.T) {
	svc, repo, gateway := buildOrderService(t)
	userID := uuid.New()
	order := repo.seedOrder(&models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		PaymentMethod: enums.PaymentMethodCard,
		PaymentStatus: enums.PaymentStatusPending,
		Status:        enums.OrderStatusPending,
		TotalCents:    2500,
	})
	gateway.result = &ChargeResult{Succeeded: true, TransactionID: "TXN-CARD-TEST"}

	dto, err := svc.Pay(context.Background(), userID, order.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if dto.PaymentStatus != enums.PaymentStatusCompleted.String() {
		t.Fatalf("expected completed payment, got %s", dto.PaymentStatus)
	}
	if dto.Status != enums.OrderStatusConfirmed.String() {
		t.Fatalf("expected auto-advance to confirmed, got %s", dto.Status)
	}
	if dto.TransactionID == nil || *dto.TransactionID != "TXN-CARD-TEST" {
		t.Fatal("expected the gateway transaction id recorded")
	}
	if dto.PaidAt == nil {
		t.Fatal("expected paid_at recorded")
	}
}

func TestPayFailureMarksPaymentFailedAndKeepsStatus(t *testing.T) {
	svc, repo, gateway := buildOrderService(t)
	userID := uuid.New()
	order := repo.seedOrder(&models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		PaymentMethod: enums.PaymentMethodCard,
		PaymentStatus: enums.PaymentStatusPending,
		Status:        enums.OrderStatusPending,
		TotalCents:    2500,
	})
	gateway.result = &ChargeResult{Succeeded: false, Reason: "insufficient funds"}

	_, err := svc.Pay(context.Background(), userID, order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePayment {
		t.Fatalf("expected payment failed, got %v", err)
	}
	if typed.Message() != "insufficient funds" {
		t.Fatalf("gateway reason must surface, got %q", typed.Message())
	}

	stored := repo.orders[order.ID]
	if stored.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment recorded, got %s", stored.PaymentStatus)
	}
	if stored.Status != enums.OrderStatusPending {
		t.Fatalf("order status must not change on failure, got %s", stored.Status)
	}
}

func TestPayGuards(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	owner := uuid.New()

	cod := repo.seedOrder(&models.Order{
		ID:            uuid.New(),
		UserID:        owner,
		PaymentMethod: enums.PaymentMethodCOD,
		PaymentStatus: enums.PaymentStatusPending,
		Status:        enums.OrderStatusConfirmed,
		TotalCents:    1000,
	})
	paid := repo.seedOrder(&models.Order{
		ID:            uuid.New(),
		UserID:        owner,
		PaymentMethod: enums.PaymentMethodUPI,
		PaymentStatus: enums.PaymentStatusCompleted,
		Status:        enums.OrderStatusConfirmed,
		TotalCents:    1000,
	})

	_, err := svc.Pay(context.Background(), owner, uuid.New())
	assertOrderCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.Pay(context.Background(), uuid.New(), cod.ID)
	assertOrderCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.Pay(context.Background(), owner, cod.ID)
	assertOrderCode(t, err, pkgerrors.CodeInvalidMethod)

	_, err = svc.Pay(context.Background(), owner, paid.ID)
	assertOrderCode(t, err, pkgerrors.CodeAlreadyPaid)
}

func TestCancelRefundsCompletedPayment(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	userID := uuid.New()
	order := repo.seedOrder(&models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		PaymentMethod: enums.PaymentMethodCard,
		PaymentStatus: enums.PaymentStatusCompleted,
		Status:        enums.OrderStatusConfirmed,
		TotalCents:    2500,
	})

	dto, err := svc.Cancel(context.Background(), userID, order.ID, CancelOrderRequest{})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if dto.Status != enums.OrderStatusCancelled.String() {
		t.Fatalf("expected cancelled, got %s", dto.Status)
	}
	if dto.PaymentStatus != enums.PaymentStatusRefunded.String() {
		t.Fatalf("completed payment flips to refunded, got %s", dto.PaymentStatus)
	}
	if dto.CancelReason == nil || *dto.CancelReason != defaultCancelReason {
		t.Fatalf("expected default cancel reason, got %v", dto.CancelReason)
	}
	if dto.CancelledAt == nil {
		t.Fatal("expected cancelled_at recorded")
	}
}

func TestCancelRejectedOncePastConfirmed(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	userID := uuid.New()
	order := repo.seedOrder(&models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		PaymentMethod: enums.PaymentMethodCard,
		PaymentStatus: enums.PaymentStatusCompleted,
		Status:        enums.OrderStatusShipped,
		TotalCents:    2500,
	})

	_, err := svc.Cancel(context.Background(), userID, order.ID, CancelOrderRequest{})
	assertOrderCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAdminStatusTransitionTable(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	order := repo.seedOrder(&models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		PaymentMethod: enums.PaymentMethodCard,
		PaymentStatus: enums.PaymentStatusCompleted,
		Status:        enums.OrderStatusConfirmed,
		TotalCents:    2500,
	})

	// confirmed -> delivered skips steps and must be rejected normally.
	_, err := svc.AdminUpdateStatus(context.Background(), order.ID, AdminStatusRequest{Status: "delivered"})
	assertOrderCode(t, err, pkgerrors.CodeStateConflict)

	// Unknown target is a validation error, not a state conflict.
	_, err = svc.AdminUpdateStatus(context.Background(), order.ID, AdminStatusRequest{Status: "misplaced"})
	assertOrderCode(t, err, pkgerrors.CodeValidation)

	tracking := "TRACK-123"
	dto, err := svc.AdminUpdateStatus(context.Background(), order.ID, AdminStatusRequest{Status: "processing"})
	if err != nil {
		t.Fatalf("confirmed->processing: %v", err)
	}
	if dto.Status != enums.OrderStatusProcessing.String() {
		t.Fatalf("expected processing, got %s", dto.Status)
	}

	dto, err = svc.AdminUpdateStatus(context.Background(), order.ID, AdminStatusRequest{
		Status:         "shipped",
		TrackingNumber: &tracking,
	})
	if err != nil {
		t.Fatalf("processing->shipped: %v", err)
	}
	if dto.TrackingNumber == nil || *dto.TrackingNumber != tracking {
		t.Fatal("expected tracking number recorded on ship")
	}
	if len(dto.StatusHistory) != 2 {
		t.Fatalf("expected two history entries, got %d", len(dto.StatusHistory))
	}
}

func TestAdminDeliveryCompletesCODPayment(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	order := repo.seedOrder(&models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		PaymentMethod: enums.PaymentMethodCOD,
		PaymentStatus: enums.PaymentStatusPending,
		Status:        enums.OrderStatusShipped,
		TotalCents:    2500,
	})

	dto, err := svc.AdminUpdateStatus(context.Background(), order.ID, AdminStatusRequest{Status: "delivered"})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if dto.DeliveredAt == nil {
		t.Fatal("expected delivered_at recorded")
	}
	if dto.PaymentStatus != enums.PaymentStatusCompleted.String() {
		t.Fatalf("cod payment completes on delivery, got %s", dto.PaymentStatus)
	}
	if dto.PaidAt == nil {
		t.Fatal("expected paid_at recorded on cod delivery")
	}
}

func TestAdminOverrideBypassesTransitionTable(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	order := repo.seedOrder(&models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		PaymentMethod: enums.PaymentMethodCard,
		PaymentStatus: enums.PaymentStatusCompleted,
		Status:        enums.OrderStatusDelivered,
		TotalCents:    2500,
	})

	dto, err := svc.AdminUpdateStatus(context.Background(), order.ID, AdminStatusRequest{
		Status:   "processing",
		Override: true,
		Note:     "customer returned the parcel",
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if dto.Status != enums.OrderStatusProcessing.String() {
		t.Fatalf("expected override to land on processing, got %s", dto.Status)
	}
	last := dto.StatusHistory[len(dto.StatusHistory)-1]
	if last.Actor != "admin-override" {
		t.Fatalf("override entries must name the override actor, got %q", last.Actor)
	}
}

func TestGetEnforcesOwnershipUnlessAdmin(t *testing.T) {
	svc, repo, _ := buildOrderService(t)
	owner := uuid.New()
	order := repo.seedOrder(&models.Order{
		ID:            uuid.New(),
		UserID:        owner,
		PaymentMethod: enums.PaymentMethodCard,
		PaymentStatus: enums.PaymentStatusPending,
		Status:        enums.OrderStatusPending,
		TotalCents:    1000,
	})

	if _, err := svc.Get(context.Background(), owner, false, order.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	_, err := svc.Get(context.Background(), uuid.New(), false, order.ID)
	assertOrderCode(t, err, pkgerrors.CodeForbidden)
	if _, err := svc.Get(context.Background(), uuid.New(), true, order.ID); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}

func buildOrderService(t *testing.T) (Service, *fakeOrderRepo, *scriptedGateway) {
	t.Helper()
	repo := newFakeOrderRepo()
	gateway := &scriptedGateway{}
	svc, err := NewService(repo, fakeTxRunner{}, gateway)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	svc.(*service).now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc, repo, gateway
}

func assertOrderCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != want {
		t.Fatalf("expected %s, got %v", want, err)
	}
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type scriptedGateway struct {
	result *ChargeResult
	err    error
}

func (g *scriptedGateway) Charge(context.Context, enums.PaymentMethod, int) (*ChargeResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type fakeOrderRepo struct {
	orders        map[uuid.UUID]*models.Order
	carts         map[uuid.UUID]*models.Cart
	cartConverted bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: map[uuid.UUID]*models.Order{},
		carts:  map[uuid.UUID]*models.Cart{},
	}
}

func (r *fakeOrderRepo) seedCart(userID uuid.UUID, items []models.CartItem) {
	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.CartStatusActive,
		Items:  items,
	}
	r.carts[cart.ID] = cart
}

func (r *fakeOrderRepo) seedOrder(order *models.Order) *models.Order {
	r.orders[order.ID] = order
	return order
}

func (r *fakeOrderRepo) WithTx(*gorm.DB) Repository { return r }

func (r *fakeOrderRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.orders[order.ID] = order
	return order, nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := r.orders[id]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, query ListQuery) ([]models.Order, int64, error) {
	var rows []models.Order
	for _, order := range r.orders {
		if order.UserID != userID {
			continue
		}
		if query.Status != "" && order.Status.String() != query.Status {
			continue
		}
		rows = append(rows, *order)
	}
	return rows, int64(len(rows)), nil
}

func (r *fakeOrderRepo) ListAll(_ context.Context, query AdminListQuery) ([]models.Order, int64, error) {
	var rows []models.Order
	for _, order := range r.orders {
		if query.Status != "" && order.Status.String() != query.Status {
			continue
		}
		rows = append(rows, *order)
	}
	return rows, int64(len(rows)), nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *models.Order) error {
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) CompletePayment(_ context.Context, order *models.Order) (int64, error) {
	stored, ok := r.orders[order.ID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	if stored.PaymentStatus == enums.PaymentStatusCompleted {
		return 0, nil
	}
	r.orders[order.ID] = order
	return 1, nil
}

func (r *fakeOrderRepo) FailPayment(_ context.Context, orderID uuid.UUID) error {
	stored, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.PaymentStatus != enums.PaymentStatusCompleted {
		stored.PaymentStatus = enums.PaymentStatusFailed
	}
	return nil
}

func (r *fakeOrderRepo) FindActiveCart(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	for _, cart := range r.carts {
		if cart.UserID == userID && cart.Status == enums.CartStatusActive {
			return cart, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) ConvertCart(_ context.Context, cartID uuid.UUID) error {
	cart, ok := r.carts[cartID]
	if !ok || cart.Status != enums.CartStatusActive {
		return gorm.ErrRecordNotFound
	}
	cart.Status = enums.CartStatusConverted
	r.cartConverted = true
	return nil
}
