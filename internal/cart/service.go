package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	pkgerrors "github.com/mateoherrera/threadline-backend/pkg/errors"
)

// Service defines the basket operations. Every method is scoped to the
// calling user's active cart; there is no way to address another user's
// basket.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID uuid.UUID, req UpdateItemRequest) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID, size, color string) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
}

type cartRepository interface {
	FindActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	CreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteAllItems(ctx context.Context, cartID uuid.UUID) error
	SaveTotals(ctx context.Context, cart *models.Cart) error
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     cartRepository
	products productFinder
}

// NewService builds the cart service.
func NewService(repo cartRepository, products productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder is required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(cart), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error) {
	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	size := strings.TrimSpace(req.Size)
	color := strings.TrimSpace(req.Color)

	if idx := cart.FindItem(product.ID, size, color); idx >= 0 {
		cart.Items[idx].Quantity += req.Quantity
		if err := s.repo.SaveItem(ctx, &cart.Items[idx]); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
		}
		return s.persistTotals(ctx, cart)
	}

	// Name, image, and price are snapshots; later product edits leave the
	// line untouched.
	item := models.CartItem{
		CartID:         cart.ID,
		ProductID:      product.ID,
		Name:           product.Name,
		ImageURL:       product.ImageURL,
		UnitPriceCents: product.EffectivePriceCents(),
		Quantity:       req.Quantity,
		Size:           size,
		Color:          color,
	}
	if err := s.repo.CreateItem(ctx, &item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart line")
	}
	cart.Items = append(cart.Items, item)
	return s.persistTotals(ctx, cart)
}

func (s *service) UpdateItem(ctx context.Context, userID uuid.UUID, req UpdateItemRequest) (*CartDTO, error) {
	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	size := strings.TrimSpace(req.Size)
	color := strings.TrimSpace(req.Color)
	idx := cart.FindItem(req.ProductID, size, color)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if req.Quantity <= 0 {
		return s.removeLine(ctx, cart, idx)
	}

	cart.Items[idx].Quantity = req.Quantity
	if err := s.repo.SaveItem(ctx, &cart.Items[idx]); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return s.persistTotals(ctx, cart)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID, size, color string) (*CartDTO, error) {
	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(productID, strings.TrimSpace(size), strings.TrimSpace(color))
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.removeLine(ctx, cart, idx)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteAllItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	cart.Items = nil
	return s.persistTotals(ctx, cart)
}

func (s *service) findOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindActive(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	created, err := s.repo.CreateCart(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) removeLine(ctx context.Context, cart *models.Cart, idx int) (*CartDTO, error) {
	if err := s.repo.DeleteItem(ctx, cart.Items[idx].ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return s.persistTotals(ctx, cart)
}

// persistTotals recomputes the derived totals and writes them back before
// returning the payload.
func (s *service) persistTotals(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	cart.RecomputeTotals()
	if err := s.repo.SaveTotals(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart totals")
	}
	return FromModel(cart), nil
}
