package market

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"thriftbazaar/internal/domain"
)

type tokenResponse struct {
	Token string `json:"token"`
}

// Login trades credentials for a bearer token. Rejections of any kind map
// to domain.ErrBadCreds.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out tokenResponse
	err := c.sendJSON(ctx, fiber.Post(c.url("/users/login")), "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 {
		return "", domain.ErrBadCreds
	}
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", domain.ErrBadCreds
	}
	return out.Token, nil
}

// RegisterVendor creates a vendor account. The token is empty when the API
// wants a separate login.
func (c *Client) RegisterVendor(ctx context.Context, reg domain.VendorRegistration) (string, error) {
	var out tokenResponse
	err := c.sendJSON(ctx, fiber.Post(c.url("/vendors/register")), "", reg, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		return "", domain.ErrEmailTaken
	}
	return out.Token, err
}

func (c *Client) CurrentVendor(ctx context.Context, token string) (domain.Vendor, error) {
	var v domain.Vendor
	err := c.getJSON(ctx, "/vendors/me", "", token, &v)
	return v, err
}

func (c *Client) UpdateVendor(ctx context.Context, token string, v domain.Vendor) (domain.Vendor, error) {
	var out domain.Vendor
	err := c.sendJSON(ctx, fiber.Put(c.url("/vendors/me")), token, v, &out)
	return out, err
}
