package models

// Property is one purchaseable field of the board as read from the
// embedded properties file. Rent is the base rent at level 1 and
// MultipliedRent holds the rents for levels 2-6 (1-4 houses, hotel).
type Property struct {
	Name           string `json:"name"`
	Type           string `json:"type"` // "street" | "railroad" | "utility"
	Group          string `json:"group"`
	Position       int    `json:"position"`
	Price          int    `json:"price"`
	Rent           int    `json:"rent"`
	MultipliedRent []int  `json:"multiplied_rent"`
	Mortgage       int    `json:"mortgage"`
	HouseCost      int    `json:"housecost"`
}

// RentAtLevel returns the rent of the property at the given level.
// Level 0 is mortgaged, level 1 the bare property, 2-5 houses and 6 a hotel.
func (p Property) RentAtLevel(level int) int {
	if level <= 0 {
		return 0
	}
	if level == 1 || len(p.MultipliedRent) == 0 {
		return p.Rent
	}
	idx := level - 2
	if idx >= len(p.MultipliedRent) {
		idx = len(p.MultipliedRent) - 1
	}
	return p.MultipliedRent[idx]
}

type Special struct {
	Info    string `json:"info"`
	Action  string `json:"action"` // "change" - balance update, "goto" - move to field, "parking" - collect free parking
	Payload int    `json:"payload"`
}
