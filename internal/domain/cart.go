package domain

// Identity is the authenticated caller, passed explicitly into every cart and
// order operation.
type Identity struct {
	UserID int64
	Staff  bool
}

// MaxQuantity is the largest quantity the cart_items.quantity INTEGER column
// holds.
const MaxQuantity = 1<<31 - 1

type Cart struct {
	ID         int64 `json:"id"`
	CustomerID int64 `json:"customer_id"`
}

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CartLine is a cart item joined with the product fields the workflow needs.
type CartLine struct {
	ItemID   int64
	Product  Product
	Quantity int
}

func (l CartLine) Total() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// LinesTotal sums price × quantity over lines using the prices they carry.
func LinesTotal(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Total()
	}
	return total
}

type CartViewLine struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       int64   `json:"price"`
	ImageURL    *string `json:"image_url"`
	Quantity    int     `json:"quantity"`
	TotalPrice  int64   `json:"total_price"`
}

type CartView struct {
	Items      []CartViewLine `json:"cart_items"`
	TotalPrice int64          `json:"total_price"`
}
