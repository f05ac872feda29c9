package domain

import (
	"errors"
	"testing"
)

func TestCanTransition_LegalEdges(t *testing.T) {
	legal := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusPaid},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusProcessing},
		{OrderStatusPaid, OrderStatusFailed},
		{OrderStatusPaid, OrderStatusCancelled},
		{OrderStatusProcessing, OrderStatusCompleted},
		{OrderStatusProcessing, OrderStatusFailed},
	}
	for _, e := range legal {
		if !CanTransition(e.from, e.to) {
			t.Errorf("expected %s -> %s to be legal", e.from, e.to)
		}
	}
}

func TestCanTransition_IllegalEdges(t *testing.T) {
	illegal := []struct{ from, to OrderStatus }{
		{OrderStatusCompleted, OrderStatusPaid},
		{OrderStatusCompleted, OrderStatusProcessing},
		{OrderStatusPending, OrderStatusProcessing},
		{OrderStatusPending, OrderStatusCompleted},
		{OrderStatusProcessing, OrderStatusCancelled},
		{OrderStatusFailed, OrderStatusPaid},
		{OrderStatusCancelled, OrderStatusPending},
		{OrderStatusPaid, OrderStatusPaid},
	}
	for _, e := range illegal {
		if CanTransition(e.from, e.to) {
			t.Errorf("expected %s -> %s to be illegal", e.from, e.to)
		}
	}
}

func TestTransitionTo_RejectsAndPreservesStatus(t *testing.T) {
	o := &Order{Status: OrderStatusCompleted}

	err := o.TransitionTo(OrderStatusPaid)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
	if o.Status != OrderStatusCompleted {
		t.Errorf("status must be unchanged after a rejected transition, got %s", o.Status)
	}
}

func TestTransitionTo_WalksFullLifecycle(t *testing.T) {
	o := &Order{Status: OrderStatusPending}
	for _, next := range []OrderStatus{OrderStatusPaid, OrderStatusProcessing, OrderStatusCompleted} {
		if err := o.TransitionTo(next); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}
	if o.Status != OrderStatusCompleted {
		t.Errorf("expected completed, got %s", o.Status)
	}
}
