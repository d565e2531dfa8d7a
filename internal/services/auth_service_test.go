package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/repos"
	"thriftbazaar/internal/services"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-key"))
	require.NoError(t, err)
	return tok
}

type fakeAuthAPI struct {
	token    string
	regToken string
	err      error
	gotReg   domain.VendorRegistration
}

func (f *fakeAuthAPI) Login(_ context.Context, email, password string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func (f *fakeAuthAPI) RegisterVendor(_ context.Context, reg domain.VendorRegistration) (string, error) {
	f.gotReg = reg
	return f.regToken, f.err
}

func newAuth(t *testing.T, api services.AuthAPI) *services.AuthService {
	s := newStack(t)
	return services.NewAuthService(repos.NewTokenRepo(s.store), api)
}

func TestSessionFromToken(t *testing.T) {
	anon := services.SessionFromToken("sid", "")
	assert.False(t, anon.LoggedIn)
	assert.Equal(t, domain.RoleNone, anon.Role)

	vendor := services.SessionFromToken("sid", signed(t, jwt.MapClaims{"sub": "v1", "email": "shop@example.com", "role": "vendor"}))
	assert.True(t, vendor.LoggedIn)
	assert.Equal(t, domain.RoleVendor, vendor.Role)
	assert.Equal(t, "v1", vendor.UserID)
	assert.Equal(t, "cart_shop@example.com", vendor.CartKey())

	noRole := services.SessionFromToken("sid", signed(t, jwt.MapClaims{"sub": "u1"}))
	assert.True(t, noRole.LoggedIn)
	assert.Equal(t, domain.RoleNone, noRole.Role)

	garbage := services.SessionFromToken("sid", "not-a-jwt")
	assert.True(t, garbage.LoggedIn, "presence of a token is what counts")
	assert.Equal(t, domain.RoleNone, garbage.Role)
}

func TestLoginStoresTokenAndLogoutClearsIt(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"sub": "u1", "email": "asha@example.com", "role": "CUSTOMER"})
	auth := newAuth(t, &fakeAuthAPI{token: tok})
	ctx := context.Background()

	assert.False(t, auth.IsLoggedIn(ctx, "sid"))
	sess, err := auth.Login(ctx, "sid", "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, sess.LoggedIn)
	assert.Equal(t, domain.RoleCustomer, auth.Role(ctx, "sid"))
	assert.True(t, auth.IsLoggedIn(ctx, "sid"))
	assert.False(t, auth.IsLoggedIn(ctx, "other-sid"))

	sess, err = auth.Logout(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn)
	assert.False(t, auth.IsLoggedIn(ctx, "sid"))
	assert.Equal(t, domain.RoleNone, auth.Role(ctx, "sid"))
}

func TestLoginValidationAndBadCreds(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t, &fakeAuthAPI{err: domain.ErrBadCreds})

	_, err := auth.Login(ctx, "sid", "", "x")
	assert.True(t, errors.Is(err, domain.ErrMissingField))
	_, err = auth.Login(ctx, "sid", "a@b.com", "")
	assert.True(t, errors.Is(err, domain.ErrMissingField))

	_, err = auth.Login(ctx, "sid", "a@b.com", "wrong")
	assert.True(t, errors.Is(err, domain.ErrBadCreds))
	assert.False(t, auth.IsLoggedIn(ctx, "sid"))
}

func TestRegisterVendor(t *testing.T) {
	ctx := context.Background()
	reg := domain.VendorRegistration{
		Vendor:   domain.Vendor{Name: "Meera", Email: "meera@example.com", ShopName: "Meera's Closet"},
		Password: "secret1",
	}

	cases := map[string]struct {
		mutate  func(*domain.VendorRegistration)
		confirm string
		field   string
	}{
		"no name":   {func(r *domain.VendorRegistration) { r.Name = "" }, "secret1", "name"},
		"bad email": {func(r *domain.VendorRegistration) { r.Email = "meera" }, "secret1", "email"},
		"short pw":  {func(r *domain.VendorRegistration) { r.Password = "12345" }, "12345", "password"},
		"mismatch":  {func(r *domain.VendorRegistration) {}, "secret2", "confirmPassword"},
		"no shop":   {func(r *domain.VendorRegistration) { r.ShopName = " " }, "secret1", "shopName"},
	}
	for name, tc := range cases {
		api := &fakeAuthAPI{}
		auth := newAuth(t, api)
		r := reg
		tc.mutate(&r)
		_, err := auth.RegisterVendor(ctx, "sid", r, tc.confirm)
		var fe *domain.FieldError
		require.True(t, errors.As(err, &fe), name)
		assert.Equal(t, tc.field, fe.Field, name)
		assert.Empty(t, api.gotReg.Email, "%s: API must not be called", name)
	}

	tok := signed(t, jwt.MapClaims{"sub": "v9", "email": "meera@example.com", "role": "VENDOR"})
	auth := newAuth(t, &fakeAuthAPI{regToken: tok})
	sess, err := auth.RegisterVendor(ctx, "sid", reg, "secret1")
	require.NoError(t, err)
	assert.True(t, sess.IsVendor())

	auth = newAuth(t, &fakeAuthAPI{})
	sess, err = auth.RegisterVendor(ctx, "sid", reg, "secret1")
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn, "no token means a separate login")

	auth = newAuth(t, &fakeAuthAPI{err: domain.ErrEmailTaken})
	_, err = auth.RegisterVendor(ctx, "sid", reg, "secret1")
	assert.True(t, errors.Is(err, domain.ErrEmailTaken))
}
