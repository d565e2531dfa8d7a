package domain

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},
		{StatusProcessing, StatusPending, false},
		{StatusShipped, StatusShipped, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusPending, OrderStatus("lost"), false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: got %v want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestOrderStatusNext(t *testing.T) {
	s := StatusPending
	var path []OrderStatus
	for {
		n, ok := s.Next()
		if !ok {
			break
		}
		path = append(path, n)
		s = n
	}
	if len(path) != 3 || path[2] != StatusDelivered {
		t.Fatalf("unexpected path %v", path)
	}
	if StatusShipped.NextStep() != StatusDelivered || StatusDelivered.NextStep() != "" {
		t.Fatal("NextStep does not follow Next")
	}
}

func TestSessionCartKey(t *testing.T) {
	if k := (Session{}).CartKey(); k != "cart" {
		t.Fatalf("anonymous key %q", k)
	}
	if k := (Session{Email: "a@b.com"}).CartKey(); k != "cart_a@b.com" {
		t.Fatalf("user key %q", k)
	}
}
