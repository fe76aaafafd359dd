package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	"github.com/mateoherrera/threadline-backend/pkg/enums"
	pkgerrors "github.com/mateoherrera/threadline-backend/pkg/errors"
	"github.com/mateoherrera/threadline-backend/pkg/pagination"
	"github.com/mateoherrera/threadline-backend/pkg/types"
)

const (
	defaultCancelReason   = "Cancelled by customer"
	estimatedDeliveryDays = 7
)

// Service defines checkout and order lifecycle operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error)
	Pay(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID, req CancelOrderRequest) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, query ListQuery) (*ListResponse, error)
	Get(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*OrderDTO, error)
	AdminList(ctx context.Context, query AdminListQuery) (*ListResponse, error)
	AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, req AdminStatusRequest) (*OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    Repository
	tx      txRunner
	gateway Gateway
	now     func() time.Time
}

// NewService builds the order service.
func NewService(repo Repository, tx txRunner, gateway Gateway) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		gateway: gateway,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// The normal fulfillment lifecycle. Administrative overrides bypass this
// table explicitly.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusCancelled:  {enums.OrderStatusRefunded},
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error) {
	method, err := enums.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !req.ShippingInfo.IsComplete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping information is incomplete")
	}

	now := s.now()
	var order *models.Order

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindActiveCart(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(cart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		// Totals come from the snapshot prices; the client's numbers are
		// only ever cross-checked, never trusted.
		subtotal := 0
		items := make([]models.OrderItem, 0, len(cart.Items))
		for _, line := range cart.Items {
			subtotal += line.UnitPriceCents * line.Quantity
			items = append(items, models.OrderItem{
				ProductID:      line.ProductID,
				Name:           line.Name,
				UnitPriceCents: line.UnitPriceCents,
				Quantity:       line.Quantity,
				Size:           line.Size,
				Color:          line.Color,
			})
		}

		if req.DiscountCents < 0 || req.DiscountCents > subtotal {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount amount")
		}

		codCharge := 0
		status := enums.OrderStatusPending
		if method == enums.PaymentMethodCOD {
			codCharge = models.CODSurchargeCents
			status = enums.OrderStatusConfirmed
		}

		eta := now.AddDate(0, 0, estimatedDeliveryDays)
		draft := &models.Order{
			OrderNumber:       newOrderNumber(now),
			UserID:            userID,
			Items:             items,
			ShippingInfo:      req.ShippingInfo,
			PaymentMethod:     method,
			PaymentStatus:     enums.PaymentStatusPending,
			SubtotalCents:     subtotal,
			DiscountCents:     req.DiscountCents,
			CODChargeCents:    codCharge,
			Status:            status,
			EstimatedDelivery: &eta,
		}
		draft.RecomputeTotal()
		draft.StatusHistory = types.StatusHistory{}.Append(status, now, "customer", "Order placed")

		if req.ClientTotalCents != nil && *req.ClientTotalCents != draft.TotalCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "order total mismatch").
				WithDetails(map[string]any{
					"expected_total_cents": draft.TotalCents,
				})
		}

		created, err := repo.Create(ctx, draft)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := repo.ConvertCart(ctx, cart.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cart was already checked out")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert cart")
		}

		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) Pay(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if order.PaymentMethod == enums.PaymentMethodCOD {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidMethod, "cash on delivery is collected at the door")
	}
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyPaid, "payment already completed")
	}

	// The gateway call sleeps; it stays outside any DB transaction.
	result, err := s.gateway.Charge(ctx, order.PaymentMethod, order.TotalCents)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !result.Succeeded {
		if err := s.repo.FailPayment(ctx, order.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment failure")
		}
		return nil, pkgerrors.New(pkgerrors.CodePayment, result.Reason)
	}

	order.PaymentStatus = enums.PaymentStatusCompleted
	order.TransactionID = &result.TransactionID
	order.PaidAt = &now
	if order.Status == enums.OrderStatusPending {
		order.Status = enums.OrderStatusConfirmed
		order.StatusHistory = order.StatusHistory.Append(
			enums.OrderStatusConfirmed, now, "system", "Payment completed")
	}

	affected, err := s.repo.CompletePayment(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyPaid, "payment already completed")
	}
	return FromModel(order), nil
}

func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID, req CancelOrderRequest) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
	}

	now := s.now()
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultCancelReason
	}

	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancelReason = &reason
	order.StatusHistory = order.StatusHistory.Append(
		enums.OrderStatusCancelled, now, "customer", reason)
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		// Bookkeeping only; no money actually moves in the simulator.
		order.PaymentStatus = enums.PaymentStatusRefunded
	}

	if err := s.repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	return FromModel(order), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, query ListQuery) (*ListResponse, error) {
	if query.Status != "" {
		if _, err := enums.ParseOrderStatus(query.Status); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter")
		}
	}
	rows, total, err := s.repo.ListByUser(ctx, userID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &ListResponse{
		Orders: FromModels(rows),
		Page:   pagination.PageFor(query.Pagination, total),
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return FromModel(order), nil
}

func (s *service) AdminList(ctx context.Context, query AdminListQuery) (*ListResponse, error) {
	if query.Status != "" {
		if _, err := enums.ParseOrderStatus(query.Status); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter")
		}
	}
	if query.PaymentStatus != "" {
		if _, err := enums.ParsePaymentStatus(query.PaymentStatus); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status filter")
		}
	}
	rows, total, err := s.repo.ListAll(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &ListResponse{
		Orders: FromModels(rows),
		Page:   pagination.PageFor(query.Pagination, total),
	}, nil
}

func (s *service) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, req AdminStatusRequest) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == target {
		return FromModel(order), nil
	}
	if !req.Override && !canTransition(order.Status, target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target)).
			WithDetails(map[string]any{
				"from": order.Status.String(),
				"to":   target.String(),
			})
	}

	now := s.now()
	note := strings.TrimSpace(req.Note)
	actor := "admin"
	if req.Override {
		actor = "admin-override"
	}

	order.Status = target
	order.StatusHistory = order.StatusHistory.Append(target, now, actor, note)

	switch target {
	case enums.OrderStatusShipped:
		if req.TrackingNumber != nil && strings.TrimSpace(*req.TrackingNumber) != "" {
			tracking := strings.TrimSpace(*req.TrackingNumber)
			order.TrackingNumber = &tracking
		}
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &now
		// COD is settled at the door, so delivery completes the payment.
		if order.PaymentMethod == enums.PaymentMethodCOD &&
			order.PaymentStatus != enums.PaymentStatusCompleted {
			order.PaymentStatus = enums.PaymentStatusCompleted
			order.PaidAt = &now
		}
	case enums.OrderStatusCancelled:
		order.CancelledAt = &now
		if note != "" {
			order.CancelReason = &note
		}
	case enums.OrderStatusRefunded:
		order.PaymentStatus = enums.PaymentStatusRefunded
	}

	if err := s.repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return FromModel(order), nil
}

func (s *service) findOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func canTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s%s", now.Format("20060102"), suffix)
}
