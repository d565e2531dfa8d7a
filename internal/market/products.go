package market

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"thriftbazaar/internal/domain"
)

// decodeProducts accepts a bare array or a {"products": [...]} envelope.
func decodeProducts(body []byte) ([]domain.Product, error) {
	body = bytes.TrimSpace(body)
	out := []domain.Product{}
	if len(body) > 0 && body[0] == '{' {
		var env struct {
			Products []domain.Product `json:"products"`
		}
		if err := decode(body, &env); err != nil {
			return nil, err
		}
		if env.Products != nil {
			out = env.Products
		}
		return out, nil
	}
	if err := decode(body, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Product{}
	}
	return out, nil
}

func filterQuery(f domain.ProductFilter) string {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	if f.MinPrice.Valid {
		q.Set("minPrice", f.MinPrice.Decimal.String())
	}
	if f.MaxPrice.Valid {
		q.Set("maxPrice", f.MaxPrice.Decimal.String())
	}
	return q.Encode()
}

func (c *Client) listProducts(ctx context.Context, path, query, token string) ([]domain.Product, error) {
	a := fiber.Get(c.url(path))
	if query != "" {
		a.QueryString(query)
	}
	body, err := c.send(ctx, a, token)
	if err != nil {
		return nil, err
	}
	return decodeProducts(body)
}

// ListProducts calls GET /products with the filter's category and price
// bounds.
func (c *Client) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	return c.listProducts(ctx, "/products", filterQuery(f), "")
}

func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := c.getJSON(ctx, "/products/"+url.PathEscape(id), "", "", &p)
	return p, err
}

// MyProducts lists the listings owned by the token's vendor.
func (c *Client) MyProducts(ctx context.Context, token string) ([]domain.Product, error) {
	return c.listProducts(ctx, "/products/my", "", token)
}

func (c *Client) CreateProduct(ctx context.Context, token string, p domain.Product) (domain.Product, error) {
	var out domain.Product
	err := c.sendJSON(ctx, fiber.Post(c.url("/products")), token, p, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, token, id string, p domain.Product) (domain.Product, error) {
	var out domain.Product
	err := c.sendJSON(ctx, fiber.Put(c.url("/products/"+url.PathEscape(id))), token, p, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	return c.sendJSON(ctx, fiber.Delete(c.url("/products/"+url.PathEscape(id))), token, nil, nil)
}

// UploadImage posts one file as multipart field "file" and returns the
// hosted URL.
func (c *Client) UploadImage(ctx context.Context, token, filename string, data []byte) (string, error) {
	a := fiber.Post(c.url("/upload"))
	a.FileData(&fiber.FormFile{Fieldname: "file", Name: filename, Content: data})
	a.MultipartForm(nil)
	body, err := c.send(ctx, a, token)
	if err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
