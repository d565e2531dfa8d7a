package marketapi_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/market"
	"thriftbazaar/internal/marketapi"
	"thriftbazaar/internal/services"
)

// startMarket serves a seeded stand-in on a loopback port and returns a
// client for it.
func startMarket(t *testing.T) *market.Client {
	t.Helper()
	db, err := marketapi.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	srv := &marketapi.Server{
		Users:      marketapi.NewUserRepo(db),
		Products:   marketapi.NewProductRepo(db),
		Tokens:     marketapi.NewTokens("it-secret", time.Hour),
		MediaDir:   t.TempDir(),
		BcryptCost: bcrypt.MinCost,
	}
	app := srv.App()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return market.New("http://"+ln.Addr().String()+"/api", 5*time.Second)
}

func TestClientAgainstStandIn(t *testing.T) {
	ctx := context.Background()
	c := startMarket(t)

	list, err := c.ListProducts(ctx, domain.ProductFilter{Category: domain.CategoryJeans})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p-denim-01", list[0].ID)
	assert.True(t, list[0].Price.Equal(decimal.NewFromInt(1832)))

	_, err = c.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.Login(ctx, "priya@thriftbazaar.test", "wrong")
	assert.ErrorIs(t, err, domain.ErrBadCreds)

	priya, err := c.Login(ctx, "priya@thriftbazaar.test", marketapi.DemoPassword)
	require.NoError(t, err)
	sess := services.SessionFromToken("sid-1", priya)
	assert.True(t, sess.IsVendor())
	assert.Equal(t, "seller1", sess.UserID)
	assert.Equal(t, "priya@thriftbazaar.test", sess.Email)

	meera, err := c.Login(ctx, "meera@thriftbazaar.test", marketapi.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, services.SessionFromToken("sid-2", meera).Role)
	_, err = c.MyProducts(ctx, meera)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	link, err := c.UploadImage(ctx, priya, "front.jpg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Regexp(t, `^/media/uploads/.+\.jpg$`, link)

	created, err := c.CreateProduct(ctx, priya, domain.Product{
		Name: "Silk Scarf", Price: decimal.RequireFromString("450.00"),
		Category: domain.CategoryAccessories, Condition: domain.ConditionExcellent,
		Images: []string{link},
	})
	require.NoError(t, err)
	assert.Equal(t, "seller1", created.VendorID)

	mine, err := c.MyProducts(ctx, priya)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	arjun, err := c.Login(ctx, "arjun@thriftbazaar.test", marketapi.DemoPassword)
	require.NoError(t, err)
	edit := created
	edit.Images = []string{link, link, link}
	_, err = c.UpdateProduct(ctx, arjun, created.ID, edit)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	err = c.DeleteProduct(ctx, arjun, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	edit.Name = "Silk Scarf (hand rolled)"
	updated, err := c.UpdateProduct(ctx, priya, created.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "Silk Scarf (hand rolled)", updated.Name)

	require.NoError(t, c.DeleteProduct(ctx, priya, created.ID))
	_, err = c.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	v, err := c.CurrentVendor(ctx, priya)
	require.NoError(t, err)
	assert.Equal(t, "VintageVault Store", v.ShopName)
	v.Description = "Curated denim since 2019"
	v, err = c.UpdateVendor(ctx, priya, v)
	require.NoError(t, err)
	assert.Equal(t, "Curated denim since 2019", v.Description)
}

func TestClientRegisterVendor(t *testing.T) {
	ctx := context.Background()
	c := startMarket(t)
	reg := domain.VendorRegistration{
		Vendor:   domain.Vendor{Name: "Kabir", Email: "kabir@example.com", ShopName: "Kabir Kloset"},
		Password: "secret1",
	}
	tok, err := c.RegisterVendor(ctx, reg)
	require.NoError(t, err)
	assert.True(t, services.SessionFromToken("sid", tok).IsVendor())

	_, err = c.RegisterVendor(ctx, reg)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}
