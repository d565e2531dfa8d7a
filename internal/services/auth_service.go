package services

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/validate"
)

// AuthAPI is the part of the market API that issues tokens.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	RegisterVendor(ctx context.Context, reg domain.VendorRegistration) (string, error)
}

// AuthService owns the token record of a namespace and derives the session
// from it. The token is decoded without verifying its signature: roles are
// a navigation hint here and the market API enforces access itself.
type AuthService struct {
	Tokens TokenRepository
	API    AuthAPI
}

func NewAuthService(tokens TokenRepository, api AuthAPI) *AuthService {
	return &AuthService{Tokens: tokens, API: api}
}

// SessionFromToken builds the session view of a stored token. Any non-empty
// token counts as logged in; claims are best effort.
func SessionFromToken(sid, token string) domain.Session {
	s := domain.Session{ID: sid}
	if token == "" {
		return s
	}
	s.Token = token
	s.LoggedIn = true

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return s
	}
	if role, ok := claims["role"].(string); ok {
		s.Role = domain.ParseRole(role)
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		s.UserID = sub
	} else if id, ok := claims["id"].(string); ok {
		s.UserID = id
	}
	s.Email, _ = claims["email"].(string)
	s.Name, _ = claims["name"].(string)
	return s
}

// Resolve loads the session of namespace sid.
func (s *AuthService) Resolve(ctx context.Context, sid string) (domain.Session, error) {
	tok, err := s.Tokens.Load(ctx, sid)
	if err != nil {
		return domain.Session{ID: sid}, err
	}
	return SessionFromToken(sid, tok), nil
}

func (s *AuthService) IsLoggedIn(ctx context.Context, sid string) bool {
	sess, err := s.Resolve(ctx, sid)
	return err == nil && sess.LoggedIn
}

// Role returns RoleNone when logged out or when the token carries no
// recognised role claim.
func (s *AuthService) Role(ctx context.Context, sid string) domain.Role {
	sess, err := s.Resolve(ctx, sid)
	if err != nil {
		return domain.RoleNone
	}
	return sess.Role
}

// UseToken stores token for sid and returns the refreshed session.
func (s *AuthService) UseToken(ctx context.Context, sid, token string) (domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Session{ID: sid}, domain.NewFieldError("token", domain.ErrMissingField, "token is required")
	}
	if err := s.Tokens.Save(ctx, sid, token); err != nil {
		return domain.Session{ID: sid}, err
	}
	return SessionFromToken(sid, token), nil
}

// Login exchanges credentials for a token and binds it to sid.
func (s *AuthService) Login(ctx context.Context, sid, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Session{ID: sid}, domain.NewFieldError("email", domain.ErrMissingField, "email is required")
	}
	if password == "" {
		return domain.Session{ID: sid}, domain.NewFieldError("password", domain.ErrMissingField, "password is required")
	}
	tok, err := s.API.Login(ctx, email, password)
	if err != nil {
		return domain.Session{ID: sid}, err
	}
	return s.UseToken(ctx, sid, tok)
}

// Logout drops the token; the returned session is anonymous.
func (s *AuthService) Logout(ctx context.Context, sid string) (domain.Session, error) {
	return domain.Session{ID: sid}, s.Tokens.Clear(ctx, sid)
}

func validateRegistration(reg domain.VendorRegistration, confirm string) error {
	if strings.TrimSpace(reg.Name) == "" {
		return domain.NewFieldError("name", domain.ErrMissingField, "name is required")
	}
	if _, ok := validate.Email(reg.Email); !ok {
		return domain.NewFieldError("email", domain.ErrInvalidInput, "email is invalid")
	}
	if !validate.Password(reg.Password) {
		return domain.NewFieldError("password", domain.ErrInvalidInput, "password must be at least 6 characters")
	}
	if reg.Password != confirm {
		return domain.NewFieldError("confirmPassword", domain.ErrInvalidInput, "passwords do not match")
	}
	if strings.TrimSpace(reg.ShopName) == "" {
		return domain.NewFieldError("shopName", domain.ErrMissingField, "shop name is required")
	}
	return nil
}

// RegisterVendor creates a shop. When the API answers with a token the
// visitor is logged in straight away; otherwise they still have to log in.
func (s *AuthService) RegisterVendor(ctx context.Context, sid string, reg domain.VendorRegistration, confirm string) (domain.Session, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if err := validateRegistration(reg, confirm); err != nil {
		return domain.Session{ID: sid}, err
	}
	tok, err := s.API.RegisterVendor(ctx, reg)
	if err != nil {
		return domain.Session{ID: sid}, err
	}
	if tok == "" {
		return domain.Session{ID: sid}, nil
	}
	return s.UseToken(ctx, sid, tok)
}
