package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mateoherrera/threadline-backend/pkg/db/models"
	"github.com/mateoherrera/threadline-backend/pkg/enums"
	pkgerrors "github.com/mateoherrera/threadline-backend/pkg/errors"
)

func TestGetCreatesActiveCartOnFirstUse(t *testing.T) {
	svc, repo, _ := buildCartService(t)
	userID := uuid.New()

	dto, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.Status != enums.CartStatusActive.String() {
		t.Fatalf("expected active cart, got %s", dto.Status)
	}
	if len(repo.carts) != 1 {
		t.Fatalf("expected one cart persisted, got %d", len(repo.carts))
	}

	again, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again.ID != dto.ID {
		t.Fatal("second get must return the same cart, not a new one")
	}
}

func TestAddItemSnapshotsProductAndMergesTriples(t *testing.T) {
	svc, _, catalog := buildCartService(t)
	userID := uuid.New()

	sale := 1800
	product := catalog.seed(&models.Product{
		ID:             uuid.New(),
		Name:           "Crew Tee",
		PriceCents:     2500,
		SalePriceCents: &sale,
		IsActive:       true,
	})

	dto, err := svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: product.ID,
		Quantity:  2,
		Size:      "M",
		Color:     "black",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(dto.Items))
	}
	if dto.Items[0].UnitPriceCents != 1800 {
		t.Fatalf("expected sale price snapshot, got %d", dto.Items[0].UnitPriceCents)
	}
	if dto.TotalItems != 2 || dto.TotalAmountCents != 3600 {
		t.Fatalf("unexpected totals: %+v", dto)
	}

	// Same triple merges; the snapshot price does not refresh.
	product.SalePriceCents = nil
	dto, err = svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: product.ID,
		Quantity:  1,
		Size:      "M",
		Color:     "black",
	})
	if err != nil {
		t.Fatalf("merge add: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].Quantity != 3 {
		t.Fatalf("expected merged line qty 3, got %+v", dto.Items)
	}
	if dto.Items[0].UnitPriceCents != 1800 {
		t.Fatal("price snapshot must not change on merge")
	}

	// A different size is its own line.
	dto, err = svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: product.ID,
		Quantity:  1,
		Size:      "L",
		Color:     "black",
	})
	if err != nil {
		t.Fatalf("add second size: %v", err)
	}
	if len(dto.Items) != 2 {
		t.Fatalf("expected two lines, got %d", len(dto.Items))
	}
	if dto.TotalItems != 4 {
		t.Fatalf("expected 4 units total, got %d", dto.TotalItems)
	}
}

func TestAddItemRejectsInactiveOrMissingProduct(t *testing.T) {
	svc, _, catalog := buildCartService(t)
	userID := uuid.New()

	_, err := svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: uuid.New(),
		Quantity:  1,
		Size:      "M",
		Color:     "black",
	})
	assertCartCode(t, err, pkgerrors.CodeNotFound)

	retired := catalog.seed(&models.Product{ID: uuid.New(), Name: "Retired", PriceCents: 1000, IsActive: false})
	_, err = svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: retired.ID,
		Quantity:  1,
		Size:      "M",
		Color:     "black",
	})
	assertCartCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateItemZeroQuantityRemovesLine(t *testing.T) {
	svc, _, catalog := buildCartService(t)
	userID := uuid.New()
	product := catalog.seed(&models.Product{ID: uuid.New(), Name: "Tee", PriceCents: 1000, IsActive: true})

	if _, err := svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: product.ID, Quantity: 2, Size: "S", Color: "white",
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	dto, err := svc.UpdateItem(context.Background(), userID, UpdateItemRequest{
		ProductID: product.ID, Quantity: 0, Size: "S", Color: "white",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(dto.Items) != 0 || dto.TotalItems != 0 || dto.TotalAmountCents != 0 {
		t.Fatalf("expected empty cart after zero-quantity update, got %+v", dto)
	}
}

func TestUpdateItemUnknownTriple(t *testing.T) {
	svc, _, catalog := buildCartService(t)
	userID := uuid.New()
	product := catalog.seed(&models.Product{ID: uuid.New(), Name: "Tee", PriceCents: 1000, IsActive: true})

	if _, err := svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: product.ID, Quantity: 1, Size: "S", Color: "white",
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := svc.UpdateItem(context.Background(), userID, UpdateItemRequest{
		ProductID: product.ID, Quantity: 2, Size: "XL", Color: "white",
	})
	assertCartCode(t, err, pkgerrors.CodeNotFound)
}

func TestClearEmptiesCartAndTotals(t *testing.T) {
	svc, _, catalog := buildCartService(t)
	userID := uuid.New()
	product := catalog.seed(&models.Product{ID: uuid.New(), Name: "Tee", PriceCents: 1000, IsActive: true})

	if _, err := svc.AddItem(context.Background(), userID, AddItemRequest{
		ProductID: product.ID, Quantity: 3, Size: "S", Color: "white",
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	dto, err := svc.Clear(context.Background(), userID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(dto.Items) != 0 || dto.TotalItems != 0 || dto.TotalAmountCents != 0 {
		t.Fatalf("expected cleared cart, got %+v", dto)
	}
}

func buildCartService(t *testing.T) (Service, *fakeCartRepo, *fakeProductFinder) {
	t.Helper()
	repo := newFakeCartRepo()
	catalog := &fakeProductFinder{byID: map[uuid.UUID]*models.Product{}}
	svc, err := NewService(repo, catalog)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo, catalog
}

func assertCartCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != want {
		t.Fatalf("expected %s, got %v", want, err)
	}
}

type fakeCartRepo struct {
	carts map[uuid.UUID]*models.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[uuid.UUID]*models.Cart{}}
}

func (r *fakeCartRepo) FindActive(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	for _, cart := range r.carts {
		if cart.UserID == userID && cart.Status == enums.CartStatusActive {
			copied := *cart
			copied.Items = append([]models.CartItem(nil), cart.Items...)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCartRepo) CreateCart(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.CartStatusActive,
	}
	r.carts[cart.ID] = cart
	// Hand back a detached copy, as FindActive does; the caller must never
	// share item storage with the repository.
	copied := *cart
	return &copied, nil
}

func (r *fakeCartRepo) CreateItem(_ context.Context, item *models.CartItem) error {
	item.ID = uuid.New()
	cart := r.carts[item.CartID]
	cart.Items = append(cart.Items, *item)
	return nil
}

func (r *fakeCartRepo) SaveItem(_ context.Context, item *models.CartItem) error {
	cart := r.carts[item.CartID]
	for i := range cart.Items {
		if cart.Items[i].ID == item.ID {
			cart.Items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	for _, cart := range r.carts {
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeCartRepo) DeleteAllItems(_ context.Context, cartID uuid.UUID) error {
	if cart, ok := r.carts[cartID]; ok {
		cart.Items = nil
	}
	return nil
}

func (r *fakeCartRepo) SaveTotals(_ context.Context, cart *models.Cart) error {
	stored, ok := r.carts[cart.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.TotalItems = cart.TotalItems
	stored.TotalAmountCents = cart.TotalAmountCents
	return nil
}

type fakeProductFinder struct {
	byID map[uuid.UUID]*models.Product
}

func (f *fakeProductFinder) seed(product *models.Product) *models.Product {
	f.byID[product.ID] = product
	return product
}

func (f *fakeProductFinder) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := f.byID[id]; ok {
		return product, nil
	}
	return nil, gorm.ErrRecordNotFound
}
