package domain

import "strings"

type Category string

const (
	CategoryMacBook   Category = "macbook"
	CategoryIPhone    Category = "iphone"
	CategoryIPad      Category = "ipad"
	CategoryWatch     Category = "watch"
	CategoryAirPods   Category = "airpods"
	CategoryTVAndHome Category = "tvandhome"
	CategoryOthers    Category = "others"
)

type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Price       int64    `json:"price"`
	Category    Category `json:"category"`
}

// ImageURL resolves the product's image reference against baseURL. Absolute
// references are returned untouched; products without an image yield nil.
func (p Product) ImageURL(baseURL string) *string {
	if p.Image == "" {
		return nil
	}
	if strings.HasPrefix(p.Image, "http://") || strings.HasPrefix(p.Image, "https://") {
		u := p.Image
		return &u
	}
	u := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(p.Image, "/")
	return &u
}
