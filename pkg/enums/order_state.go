package enums

import "fmt"

// OrderState tracks the order lifecycle. An order in the basket state is the
// user's mutable draft; every later state belongs to fulfillment.
type OrderState string

const (
	OrderStateBasket    OrderState = "basket"
	OrderStateNew       OrderState = "new"
	OrderStateConfirmed OrderState = "confirmed"
	OrderStateAssembled OrderState = "assembled"
	OrderStateSent      OrderState = "sent"
	OrderStateDelivered OrderState = "delivered"
	OrderStateCanceled  OrderState = "canceled"
)

var validOrderStates = []OrderState{
	OrderStateBasket,
	OrderStateNew,
	OrderStateConfirmed,
	OrderStateAssembled,
	OrderStateSent,
	OrderStateDelivered,
	OrderStateCanceled,
}

// String implements fmt.Stringer.
func (s OrderState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderState.
func (s OrderState) IsValid() bool {
	for _, candidate := range validOrderStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsPlaced reports whether the order has left the basket state.
func (s OrderState) IsPlaced() bool {
	return s.IsValid() && s != OrderStateBasket
}

// ParseOrderState converts raw input into an OrderState.
func ParseOrderState(value string) (OrderState, error) {
	for _, candidate := range validOrderStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order state %q", value)
}
