package services

import (
	"context"
	"strings"

	"thriftbazaar/internal/domain"
)

// VendorAPI is the authenticated, vendor scoped part of the market API.
type VendorAPI interface {
	MyProducts(ctx context.Context, token string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, token string, p domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, token, id string, p domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, token, id string) error
	UploadImage(ctx context.Context, token, filename string, data []byte) (string, error)
	CurrentVendor(ctx context.Context, token string) (domain.Vendor, error)
	UpdateVendor(ctx context.Context, token string, v domain.Vendor) (domain.Vendor, error)
}

const (
	minImagesCreate = 1
	minImagesEdit   = 3
)

// VendorService backs the seller dashboard.
type VendorService struct {
	API VendorAPI
}

func NewVendorService(api VendorAPI) *VendorService { return &VendorService{API: api} }

// ValidateListing checks a listing before it is sent to the API.
func ValidateListing(p domain.Product, minImages int) error {
	if strings.TrimSpace(p.Name) == "" {
		return domain.NewFieldError("name", domain.ErrInvalidProduct, "product name is required")
	}
	if !p.Price.IsPositive() {
		return domain.NewFieldError("price", domain.ErrInvalidProduct, "valid price is required")
	}
	if !p.Category.Valid() {
		return domain.NewFieldError("category", domain.ErrInvalidProduct, "category is required")
	}
	if _, ok := domain.ParseCondition(string(p.Condition)); !ok {
		return domain.NewFieldError("condition", domain.ErrInvalidProduct, "condition must be excellent, good or fair")
	}
	n := 0
	for _, im := range p.Images {
		if strings.TrimSpace(im) != "" {
			n++
		}
	}
	if n < minImages {
		if minImages == 1 {
			return domain.NewFieldError("images", domain.ErrInvalidProduct, "at least one image is required")
		}
		return domain.NewFieldError("images", domain.ErrInvalidProduct, "product must have at least 3 photos")
	}
	return nil
}

func (s *VendorService) MyProducts(ctx context.Context, sess domain.Session) ([]domain.Product, error) {
	if !sess.LoggedIn {
		return nil, domain.ErrNotLoggedIn
	}
	return s.API.MyProducts(ctx, sess.Token)
}

func (s *VendorService) Create(ctx context.Context, sess domain.Session, p domain.Product) (domain.Product, error) {
	if !sess.LoggedIn {
		return domain.Product{}, domain.ErrNotLoggedIn
	}
	if err := ValidateListing(p, minImagesCreate); err != nil {
		return domain.Product{}, err
	}
	return s.API.CreateProduct(ctx, sess.Token, p)
}

func (s *VendorService) Update(ctx context.Context, sess domain.Session, id string, p domain.Product) (domain.Product, error) {
	if !sess.LoggedIn {
		return domain.Product{}, domain.ErrNotLoggedIn
	}
	if err := ValidateListing(p, minImagesEdit); err != nil {
		return domain.Product{}, err
	}
	return s.API.UpdateProduct(ctx, sess.Token, id, p)
}

func (s *VendorService) Delete(ctx context.Context, sess domain.Session, id string) error {
	if !sess.LoggedIn {
		return domain.ErrNotLoggedIn
	}
	return s.API.DeleteProduct(ctx, sess.Token, id)
}

// UploadImage hosts one picture and returns its public URL.
func (s *VendorService) UploadImage(ctx context.Context, sess domain.Session, filename string, data []byte) (string, error) {
	if !sess.LoggedIn {
		return "", domain.ErrNotLoggedIn
	}
	if len(data) == 0 {
		return "", domain.NewFieldError("images", domain.ErrInvalidInput, "empty file")
	}
	return s.API.UploadImage(ctx, sess.Token, filename, data)
}

func (s *VendorService) Profile(ctx context.Context, sess domain.Session) (domain.Vendor, error) {
	if !sess.LoggedIn {
		return domain.Vendor{}, domain.ErrNotLoggedIn
	}
	return s.API.CurrentVendor(ctx, sess.Token)
}

func (s *VendorService) UpdateProfile(ctx context.Context, sess domain.Session, v domain.Vendor) (domain.Vendor, error) {
	if !sess.LoggedIn {
		return domain.Vendor{}, domain.ErrNotLoggedIn
	}
	if strings.TrimSpace(v.ShopName) == "" {
		return domain.Vendor{}, domain.NewFieldError("shopName", domain.ErrMissingField, "shop name is required")
	}
	return s.API.UpdateVendor(ctx, sess.Token, v)
}
