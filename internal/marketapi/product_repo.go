package marketapi

import (
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"thriftbazaar/internal/domain"
)

type productRow struct {
	ID          string          `db:"id"`
	VendorID    string          `db:"vendor_id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Category    string          `db:"category"`
	Condition   string          `db:"condition"`
	Size        string          `db:"size"`
	Color       string          `db:"color"`
	Material    string          `db:"material"`
	ImagesJSON  string          `db:"images_json"`
	Seller      string          `db:"seller"`
}

func (r productRow) product() domain.Product {
	p := domain.Product{
		ID: r.ID, Name: r.Name, Description: r.Description, Price: r.Price,
		Category: domain.Category(r.Category), Condition: domain.Condition(r.Condition),
		Size: r.Size, Color: r.Color, Material: r.Material,
		VendorID: r.VendorID, Seller: r.Seller,
	}
	if err := json.Unmarshal([]byte(r.ImagesJSON), &p.Images); err != nil || p.Images == nil {
		p.Images = []string{}
	}
	return p
}

func rowFrom(p domain.Product) productRow {
	imgs := p.Images
	if imgs == nil {
		imgs = []string{}
	}
	b, _ := json.Marshal(imgs)
	return productRow{
		ID: p.ID, VendorID: p.VendorID, Name: p.Name, Description: p.Description, Price: p.Price,
		Category: string(p.Category), Condition: string(p.Condition),
		Size: p.Size, Color: p.Color, Material: p.Material, ImagesJSON: string(b),
	}
}

const productSelect = `
  SELECT
    p.id, p.vendor_id, p.name, p.description, p.price, p.category, p.condition,
    p.size, p.color, p.material, p.images_json,
    CASE WHEN u.shop_name <> '' THEN u.shop_name ELSE COALESCE(u.name,'') END AS seller
  FROM products p
  LEFT JOIN users u ON u.id = p.vendor_id`

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func toProducts(rows []productRow) []domain.Product {
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.product())
	}
	return out
}

// List returns listings newest first. Price bounds are applied in Go
// because prices are stored as decimal text.
func (r *ProductRepo) List(f domain.ProductFilter) ([]domain.Product, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.Category != "" {
		where += ` AND p.category = ?`
		args = append(args, string(f.Category))
	}
	if f.Condition != "" {
		where += ` AND p.condition = ?`
		args = append(args, string(f.Condition))
	}
	var rows []productRow
	if err := r.db.Select(&rows, productSelect+where+` ORDER BY p.created_at DESC, p.id`, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		if f.MinPrice.Valid && row.Price.LessThan(f.MinPrice.Decimal) {
			continue
		}
		if f.MaxPrice.Valid && row.Price.GreaterThan(f.MaxPrice.Decimal) {
			continue
		}
		out = append(out, row.product())
	}
	return out, nil
}

func (r *ProductRepo) ByVendor(vendorID string) ([]domain.Product, error) {
	var rows []productRow
	err := r.db.Select(&rows, productSelect+` WHERE p.vendor_id = ? ORDER BY p.created_at DESC, p.id`, vendorID)
	return toProducts(rows), err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var row productRow
	if err := r.db.Get(&row, productSelect+` WHERE p.id = ?`, id); err != nil {
		return domain.Product{}, notFound(err)
	}
	return row.product(), nil
}

func (r *ProductRepo) Create(p domain.Product) error {
	_, err := r.db.NamedExec(`
		INSERT INTO products(id,vendor_id,name,description,price,category,condition,size,color,material,images_json)
		VALUES(:id,:vendor_id,:name,:description,:price,:category,:condition,:size,:color,:material,:images_json)`, rowFrom(p))
	return err
}

func (r *ProductRepo) Update(p domain.Product) error {
	res, err := r.db.NamedExec(`
		UPDATE products SET name=:name, description=:description, price=:price, category=:category,
		  condition=:condition, size=:size, color=:color, material=:material, images_json=:images_json,
		  updated_at=CURRENT_TIMESTAMP
		WHERE id=:id`, rowFrom(p))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM products WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
