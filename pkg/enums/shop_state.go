package enums

import "fmt"

// ShopState controls whether a shop accepts price-list updates.
type ShopState string

const (
	ShopStateOpen   ShopState = "open"
	ShopStateClosed ShopState = "closed"
)

var validShopStates = []ShopState{
	ShopStateOpen,
	ShopStateClosed,
}

// String implements fmt.Stringer.
func (s ShopState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShopState.
func (s ShopState) IsValid() bool {
	for _, candidate := range validShopStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShopState converts raw input into a ShopState.
func ParseShopState(value string) (ShopState, error) {
	for _, candidate := range validShopStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shop state %q", value)
}
