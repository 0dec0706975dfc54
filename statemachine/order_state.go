package statemachine

import (
	"fmt"
	"strings"

	"github.com/yeremiapane/cafe-pos/models"
)

// Transition is a legal order status change and its payment side effect.
type Transition struct {
	From models.OrderStatus
	To   models.OrderStatus
	// PaymentStatus is applied to the order unless the caller supplies one.
	PaymentStatus models.PaymentStatus
	// RestoresStock is set when the transition gives the order's items back.
	RestoresStock bool
}

var validTransitions = []Transition{
	{From: models.OrderActive, To: models.OrderCompleted, PaymentStatus: models.PaymentCompleted},
	{From: models.OrderActive, To: models.OrderCancelled, RestoresStock: true},
	{From: models.OrderCompleted, To: models.OrderRefunded, PaymentStatus: models.PaymentRefunded, RestoresStock: true},
}

type transitionKey struct {
	From models.OrderStatus
	To   models.OrderStatus
}

var transitionMap = func() map[transitionKey]Transition {
	m := make(map[transitionKey]Transition, len(validTransitions))
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To}] = t
	}
	return m
}()

// Lookup returns the transition from -> to, or an error naming the legal
// next states.
func Lookup(from, to models.OrderStatus) (Transition, error) {
	if t, ok := transitionMap[transitionKey{from, to}]; ok {
		return t, nil
	}
	return Transition{}, fmt.Errorf("%s -> %s is not allowed; valid transitions from %s: %s",
		from, to, from, describeValidFrom(from))
}

// ValidTransitionsFrom returns all valid next states from a given state.
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
