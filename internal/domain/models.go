package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryTShirts     Category = "TSHIRTS"
	CategoryShirts      Category = "SHIRTS"
	CategoryJeans       Category = "JEANS"
	CategoryJackets     Category = "JACKETS"
	CategoryDresses     Category = "DRESSES"
	CategoryShoes       Category = "SHOES"
	CategoryAccessories Category = "ACCESSORIES"
	CategoryHoodies     Category = "HOODIES"
	CategorySweaters    Category = "SWEATERS"
)

// Categories lists every listing category in display order.
var Categories = []Category{
	CategoryTShirts, CategoryShirts, CategoryJeans, CategoryJackets, CategoryDresses,
	CategoryShoes, CategoryAccessories, CategoryHoodies, CategorySweaters,
}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Label renders the category for people, e.g. TSHIRTS -> "T-Shirts".
func (c Category) Label() string {
	if c == CategoryTShirts {
		return "T-Shirts"
	}
	s := strings.ToLower(string(c))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type Condition string

const (
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
)

// ParseCondition accepts any casing and returns the canonical value.
func ParseCondition(s string) (Condition, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "excellent":
		return ConditionExcellent, true
	case "good":
		return ConditionGood, true
	case "fair":
		return ConditionFair, true
	}
	return "", false
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Condition   Condition       `json:"condition"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	Material    string          `json:"material,omitempty"`
	Images      []string        `json:"images"`
	VendorID    string          `json:"vendorId,omitempty"`
	Seller      string          `json:"seller,omitempty"`
}

// Image returns the primary picture or "" when the listing has none.
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductFilter narrows catalog queries. Zero values mean "no constraint".
type ProductFilter struct {
	Category  Category
	Condition Condition
	Search    string
	MinPrice  decimal.NullDecimal
	MaxPrice  decimal.NullDecimal
}

type Vendor struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	ShopName    string `json:"shopName"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	Description string `json:"description,omitempty"`
}

// VendorRegistration is the sign-up form for a new shop.
type VendorRegistration struct {
	Vendor
	Password string `json:"password"`
}

// Message is one entry of a buyer/seller conversation. From is "customer"
// or "seller".
type Message struct {
	ID        string    `json:"id"`
	SellerID  string    `json:"sellerId"`
	From      string    `json:"type"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
}
