package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"thriftbazaar/internal/domain"
)

const sellerAutoReply = "Thank you for your inquiry! I'm very interested in helping you. Will provide more details shortly."

// ContactService keeps buyer/seller conversations. Sellers are simulated:
// every customer message is answered with a canned reply.
type ContactService struct {
	Messages MessageRepository
	Now      func() time.Time

	locks keyedMutex
}

func NewContactService(msgs MessageRepository) *ContactService {
	return &ContactService{Messages: msgs, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *ContactService) Thread(ctx context.Context, ns, sellerID string) ([]domain.Message, error) {
	return s.Messages.Load(ctx, ns, sellerID)
}

// Send appends the customer's message and the seller's reply.
func (s *ContactService) Send(ctx context.Context, ns, sellerID, sellerName string, m domain.Message) ([]domain.Message, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Text = strings.TrimSpace(m.Text)
	if m.Name == "" || m.Email == "" || m.Text == "" {
		return nil, domain.NewFieldError("message", domain.ErrMissingField, "please fill in all fields")
	}
	now := s.Now()
	m.ID = uuid.NewString()
	m.SellerID = sellerID
	m.From = "customer"
	m.CreatedAt = now
	reply := domain.Message{
		ID:        uuid.NewString(),
		SellerID:  sellerID,
		From:      "seller",
		Name:      sellerName,
		Text:      sellerAutoReply,
		CreatedAt: now,
	}

	defer s.locks.lock(ns + "/" + sellerID)()
	thread, err := s.Messages.Load(ctx, ns, sellerID)
	if err != nil {
		return nil, err
	}
	thread = append(thread, m, reply)
	if err := s.Messages.Save(ctx, ns, sellerID, thread); err != nil {
		return nil, err
	}
	return thread, nil
}
