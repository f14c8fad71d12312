package enum

import (
	"encoding/json"
	"fmt"
)

// MovementType classifies a stock quantity change.
type MovementType string

const (
	MovementPurchase    MovementType = "PURCHASE"
	MovementConsumption MovementType = "CONSUMPTION"
	MovementWastage     MovementType = "WASTAGE"
	MovementAdjustment  MovementType = "ADJUSTMENT"
)

func (t MovementType) String() string { return string(t) }

func (t MovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementConsumption, MovementWastage, MovementAdjustment:
		return true
	}
	return false
}

// Decrements reports whether the movement removes stock.
func (t MovementType) Decrements() bool {
	return t == MovementConsumption || t == MovementWastage
}

func (t *MovementType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v := MovementType(str)
	if !v.Valid() {
		return fmt.Errorf("invalid movement type %q", str)
	}
	*t = v
	return nil
}
