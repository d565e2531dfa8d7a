package services

import (
	"github.com/shopspring/decimal"

	"thriftbazaar/internal/domain"
)

const placeholderImage = "https://via.placeholder.com/800?text=No+Image"

func unsplash(id string) string {
	return "https://images.unsplash.com/photo-" + id + "?w=500&h=500&fit=crop"
}

func sample(id, name string, price int64, cat domain.Category, cond domain.Condition, img, vendor, seller string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        name,
		Description: "A pre-loved piece in great shape, checked and cleaned before listing.",
		Price:       decimal.NewFromInt(price),
		Category:    cat,
		Condition:   cond,
		Size:        "M",
		Images:      []string{unsplash(img)},
		VendorID:    vendor,
		Seller:      seller,
	}
}

// sampleProducts is shown whenever the market API cannot be reached.
var sampleProducts = []domain.Product{
	sample("s1", "Vintage Blue Denim Jeans", 1832, domain.CategoryJeans, domain.ConditionExcellent, "1542272604-787c3835535d", "seller1", "VintageVault Store"),
	sample("s2", "Classic Cotton Button-Up", 1842, domain.CategoryShirts, domain.ConditionGood, "1596755094514-f87e34085b2c", "seller2", "ClassicStyle Shop"),
	sample("s3", "Premium Leather Jacket", 2685, domain.CategoryJackets, domain.ConditionExcellent, "1520975661595-6453be3f7070", "seller3", "Premium Leather Store"),
	sample("s4", "Striped Casual Tee", 1214, domain.CategoryTShirts, domain.ConditionGood, "1583743814966-8936f37f4c84", "seller2", "ClassicStyle Shop"),
	sample("s5", "Black Summer Dress", 2145, domain.CategoryDresses, domain.ConditionExcellent, "1572804419417-3346167ba528", "seller1", "VintageVault Store"),
	sample("s6", "Elegant Trench Coat", 3299, domain.CategoryJackets, domain.ConditionGood, "1539533057440-7d8f3f76fbf5", "seller3", "Premium Leather Store"),
	sample("s7", "Floral Print Blouse", 1549, domain.CategoryShirts, domain.ConditionFair, "1589537279146-0d3a19be2e07", "seller1", "VintageVault Store"),
	sample("s8", "White Linen Pants", 1799, domain.CategoryJeans, domain.ConditionGood, "1594938298603-c8148c4dae35", "seller2", "ClassicStyle Shop"),
}

// genericSample stands in for a product that neither the API nor the
// sample list knows.
func genericSample(id string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        "Sample Product",
		Description: "A beautiful pre-loved item in great condition",
		Price:       decimal.NewFromInt(1500),
		Condition:   domain.ConditionExcellent,
		Size:        "One Size",
		Material:    "100% Cotton",
		Seller:      "ThriftBazaar Seller",
		VendorID:    "default",
		Images: []string{
			"https://images.unsplash.com/photo-1542272604-787c3835535d?w=800&h=800&fit=crop",
			"https://images.unsplash.com/photo-1603256245606-60aff6f1af6f?w=800&h=800&fit=crop",
			"https://images.unsplash.com/photo-1541099810657-40a3ad2f6f4b?w=800&h=800&fit=crop",
		},
	}
}

// Sellers known to the contact page; other ids fall back to the listing's
// seller name.
var knownSellers = map[string]string{
	"seller1": "VintageVault Store",
	"seller2": "ClassicStyle Shop",
	"seller3": "Premium Leather Store",
}
