package cart

import (
	"context"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Store interface {
	AddItem(ctx context.Context, customerID, productID int64) (int, error)
	Lines(ctx context.Context, customerID int64) ([]domain.CartLine, error)
	Quantity(ctx context.Context, customerID, productID int64) (int, error)
	SetQuantity(ctx context.Context, customerID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, customerID, productID int64) error
}

type ProductGetter interface {
	Get(ctx context.Context, id int64) (domain.Product, error)
}

// Manager implements the cart operations. Every call is scoped to the cart of
// the identity passed in.
type Manager struct {
	carts        Store
	products     ProductGetter
	mediaBaseURL string
}

func NewManager(carts Store, products ProductGetter, mediaBaseURL string) *Manager {
	return &Manager{
		carts:        carts,
		products:     products,
		mediaBaseURL: mediaBaseURL,
	}
}

func (m *Manager) AddItem(ctx context.Context, id domain.Identity, productID int64) (domain.CartItem, error) {
	product, err := m.products.Get(ctx, productID)
	if err != nil {
		return domain.CartItem{}, err
	}

	quantity, err := m.carts.AddItem(ctx, id.UserID, product.ID)
	if err != nil {
		return domain.CartItem{}, err
	}

	return domain.CartItem{Product: product, Quantity: quantity}, nil
}

func (m *Manager) View(ctx context.Context, id domain.Identity) (domain.CartView, error) {
	lines, err := m.carts.Lines(ctx, id.UserID)
	if err != nil {
		return domain.CartView{}, err
	}

	view := domain.CartView{Items: make([]domain.CartViewLine, 0, len(lines))}
	for _, l := range lines {
		view.Items = append(view.Items, domain.CartViewLine{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Price:       l.Product.Price,
			ImageURL:    l.Product.ImageURL(m.mediaBaseURL),
			Quantity:    l.Quantity,
			TotalPrice:  l.Total(),
		})
	}
	view.TotalPrice = domain.LinesTotal(lines)

	return view, nil
}

// SetQuantity overwrites the quantity of an existing cart item. Existence is
// checked before the quantity so a missing cart reports NotFound. Quantities
// outside 1..MaxQuantity are rejected and leave the item untouched.
func (m *Manager) SetQuantity(ctx context.Context, id domain.Identity, productID int64, quantity int) (domain.CartItem, error) {
	if _, err := m.carts.Quantity(ctx, id.UserID, productID); err != nil {
		return domain.CartItem{}, err
	}

	if quantity < 1 || quantity > domain.MaxQuantity {
		return domain.CartItem{}, domain.ErrInvalidQuantity
	}

	if err := m.carts.SetQuantity(ctx, id.UserID, productID, quantity); err != nil {
		return domain.CartItem{}, err
	}

	product, err := m.products.Get(ctx, productID)
	if err != nil {
		return domain.CartItem{}, err
	}

	return domain.CartItem{Product: product, Quantity: quantity}, nil
}

func (m *Manager) RemoveItem(ctx context.Context, id domain.Identity, productID int64) error {
	return m.carts.RemoveItem(ctx, id.UserID, productID)
}
