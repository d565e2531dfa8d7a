package services

import (
	"context"

	"github.com/google/uuid"

	"thriftbazaar/internal/domain"
)

// CartService owns the line list of the visitor's cart. Every mutation
// rewrites the whole record.
type CartService struct {
	Carts CartRepository
	NewID func() string

	locks keyedMutex
}

func NewCartService(carts CartRepository) *CartService {
	return &CartService{Carts: carts, NewID: uuid.NewString}
}

func (s *CartService) mutate(ctx context.Context, sess domain.Session, fn func([]domain.CartLine) ([]domain.CartLine, error)) ([]domain.CartLine, error) {
	key := sess.CartKey()
	defer s.locks.lock(sess.ID + "/" + key)()
	lines, err := s.Carts.Load(ctx, sess.ID, key)
	if err != nil {
		return nil, err
	}
	next, err := fn(lines)
	if err != nil {
		return lines, err
	}
	if err := s.Carts.Save(ctx, sess.ID, key, next); err != nil {
		return lines, err
	}
	return next, nil
}

// AddItem adds qty of p. A line already holding the product has its
// quantity increased; otherwise a new line with a fresh id snapshots p.
// qty below 1 leaves the cart as it is.
func (s *CartService) AddItem(ctx context.Context, sess domain.Session, p domain.Product, qty int) ([]domain.CartLine, error) {
	if p.ID == "" {
		return nil, domain.NewFieldError("product", domain.ErrInvalidInput, "missing product id")
	}
	if qty < 1 {
		lines, err := s.Items(ctx, sess)
		if err != nil {
			return nil, err
		}
		return lines, domain.ErrInvalidQuantity
	}
	return s.mutate(ctx, sess, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		for i := range lines {
			if lines[i].Product.ID == p.ID {
				lines[i].Quantity += qty
				return lines, nil
			}
		}
		return append(lines, domain.CartLine{LineID: s.NewID(), Product: p, Quantity: qty}), nil
	})
}

// UpdateQuantity sets the quantity of one line. Values below 1 are rejected
// and an unknown line is left alone.
func (s *CartService) UpdateQuantity(ctx context.Context, sess domain.Session, lineID string, qty int) ([]domain.CartLine, error) {
	if qty < 1 {
		lines, err := s.Items(ctx, sess)
		if err != nil {
			return nil, err
		}
		return lines, domain.ErrInvalidQuantity
	}
	return s.mutate(ctx, sess, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		for i := range lines {
			if lines[i].LineID == lineID {
				lines[i].Quantity = qty
			}
		}
		return lines, nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, sess domain.Session, lineID string) ([]domain.CartLine, error) {
	return s.mutate(ctx, sess, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		out := make([]domain.CartLine, 0, len(lines))
		for _, l := range lines {
			if l.LineID != lineID {
				out = append(out, l)
			}
		}
		return out, nil
	})
}

func (s *CartService) Items(ctx context.Context, sess domain.Session) ([]domain.CartLine, error) {
	return s.Carts.Load(ctx, sess.ID, sess.CartKey())
}

// Count is the total quantity, used for the header badge.
func (s *CartService) Count(ctx context.Context, sess domain.Session) int {
	lines, err := s.Items(ctx, sess)
	if err != nil {
		return 0
	}
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func (s *CartService) Clear(ctx context.Context, sess domain.Session) error {
	key := sess.CartKey()
	defer s.locks.lock(sess.ID + "/" + key)()
	return s.Carts.Clear(ctx, sess.ID, key)
}
