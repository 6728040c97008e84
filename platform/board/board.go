package board

import (
	"fmt"
	"sort"

	"monopoly-ai/app/models"
	"monopoly-ai/platform/ai"
)

type fieldState struct {
	prop        models.Property
	owner       string
	level       int
	mortgaged   bool
	canPurchase bool
}

// BoardInformation holds the state of every purchaseable field plus the
// shared house/hotel inventory and free parking pot for one game. It is the
// snapshot all decision models observe. Mutation happens only through the
// action methods below; reads are safe concurrently once mutation stops.
type BoardInformation struct {
	playerNames     []string
	maxCashLimit    int
	availableHouses int
	availableHotels int
	freeParkingCash int

	fields    map[int]*fieldState
	positions []int
}

const (
	DefaultMaxCashLimit    = 10000
	DefaultAvailableHouses = 32
	DefaultAvailableHotels = 12
)

func NewBoardInformation(playerNames []string, maxCashLimit, houses, hotels int) (*BoardInformation, error) {
	if len(playerNames) == 0 {
		return nil, fmt.Errorf("%w: player list is empty", ErrIllegalAction)
	}
	seen := map[string]bool{}
	for _, name := range playerNames {
		if name == "" {
			return nil, fmt.Errorf("%w: empty player name", ErrIllegalAction)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate player %q", ErrIllegalAction, name)
		}
		seen[name] = true
	}
	if maxCashLimit <= 0 {
		return nil, fmt.Errorf("%w: max cash limit must be positive", ErrIllegalAction)
	}
	if houses < 0 || hotels < 0 {
		return nil, fmt.Errorf("%w: house and hotel counts cannot be negative", ErrIllegalAction)
	}

	properties, err := LoadProperties()
	if err != nil {
		return nil, err
	}

	b := &BoardInformation{
		playerNames:     append([]string(nil), playerNames...),
		maxCashLimit:    maxCashLimit,
		availableHouses: houses,
		availableHotels: hotels,
		fields:          make(map[int]*fieldState, len(properties)),
	}
	for _, p := range properties {
		b.fields[p.Position] = &fieldState{prop: p, canPurchase: true}
		b.positions = append(b.positions, p.Position)
	}
	sort.Ints(b.positions)
	return b, nil
}

// Positions returns the board positions of all purchaseable fields in
// ascending order. This is the index decision vectors refer to.
func (b *BoardInformation) Positions() []int {
	return b.positions
}

func (b *BoardInformation) MaxCashLimit() int    { return b.maxCashLimit }
func (b *BoardInformation) AvailableHouses() int { return b.availableHouses }
func (b *BoardInformation) AvailableHotels() int { return b.availableHotels }
func (b *BoardInformation) FreeParkingCash() int { return b.freeParkingCash }

// AddFreeParking places cash on the free parking field.
func (b *BoardInformation) AddFreeParking(amount int) {
	if amount > 0 {
		b.freeParkingCash += amount
	}
}

// CollectFreeParking empties the free parking field and returns the pot.
func (b *BoardInformation) CollectFreeParking() int {
	cash := b.freeParkingCash
	b.freeParkingCash = 0
	return cash
}

func (b *BoardInformation) IsActionField(pos int) bool {
	_, ok := actionFields[pos]
	return ok
}

func (b *BoardInformation) IsProperty(pos int) bool {
	f, ok := b.fields[pos]
	return ok && f.prop.Type == "street"
}

func (b *BoardInformation) IsSpecial(pos int) bool {
	f, ok := b.fields[pos]
	return ok && f.prop.Type != "street"
}

func (b *BoardInformation) CanPurchase(pos int) bool {
	f, ok := b.fields[pos]
	return ok && f.canPurchase
}

func (b *BoardInformation) IsAnyPurchaseable() bool {
	for _, f := range b.fields {
		if f.canPurchase {
			return true
		}
	}
	return false
}

func (b *BoardInformation) IsOwnedBy(name string, pos int) bool {
	f, ok := b.fields[pos]
	return ok && f.owner == name && name != ""
}

// OwnerName returns the owner of the field at pos, or "" when unowned.
func (b *BoardInformation) OwnerName(pos int) string {
	if f, ok := b.fields[pos]; ok {
		return f.owner
	}
	return ""
}

func (b *BoardInformation) Level(pos int) int {
	if f, ok := b.fields[pos]; ok {
		return f.level
	}
	return 0
}

func (b *BoardInformation) IsMortgaged(pos int) bool {
	f, ok := b.fields[pos]
	return ok && f.mortgaged
}

func (b *BoardInformation) PropertyName(pos int) string {
	if f, ok := b.fields[pos]; ok {
		return f.prop.Name
	}
	return "Action field"
}

func (b *BoardInformation) PurchasePrice(pos int) int {
	if f, ok := b.fields[pos]; ok {
		return f.prop.Price
	}
	return 0
}

func (b *BoardInformation) UpgradeAmount(pos int) int {
	if f, ok := b.fields[pos]; ok {
		return f.prop.HouseCost
	}
	return 0
}

func (b *BoardInformation) DowngradeAmount(pos int) int {
	if f, ok := b.fields[pos]; ok {
		return f.prop.HouseCost / 2
	}
	return 0
}

func (b *BoardInformation) MortgageAmount(pos int) int {
	if f, ok := b.fields[pos]; ok {
		return f.prop.Mortgage
	}
	return 0
}

// IsMonopoly reports whether the street at pos belongs to a color group
// fully owned by a single player.
func (b *BoardInformation) IsMonopoly(pos int) bool {
	f, ok := b.fields[pos]
	if !ok || f.prop.Type != "street" || f.owner == "" {
		return false
	}
	for _, other := range b.groupPositions(f.prop.Group) {
		if b.fields[other].owner != f.owner {
			return false
		}
	}
	return true
}

func (b *BoardInformation) groupPositions(group string) []int {
	var out []int
	for _, pos := range b.positions {
		if b.fields[pos].prop.Group == group {
			out = append(out, pos)
		}
	}
	return out
}

// GroupPositions returns the positions sharing the color group of pos.
func (b *BoardInformation) GroupPositions(pos int) []int {
	if f, ok := b.fields[pos]; ok {
		return b.groupPositions(f.prop.Group)
	}
	return nil
}

func (b *BoardInformation) CanUpgrade(name string, pos int) bool {
	f, ok := b.fields[pos]
	if !ok || f.prop.Type != "street" || f.owner != name || f.mortgaged {
		return false
	}
	if f.level < 1 || f.level >= 6 || !b.IsMonopoly(pos) {
		return false
	}
	if f.level == 5 {
		return b.availableHotels > 0
	}
	return b.availableHouses > 0
}

func (b *BoardInformation) CanDowngrade(name string, pos int) bool {
	f, ok := b.fields[pos]
	if !ok || f.prop.Type != "street" || f.owner != name || f.mortgaged || f.level < 2 {
		return false
	}
	if f.level == 6 {
		// tearing down a hotel puts four houses back on the property
		return b.availableHouses >= 4
	}
	return true
}

func (b *BoardInformation) CanMortgage(name string, pos int) bool {
	f, ok := b.fields[pos]
	if !ok || f.owner != name || f.mortgaged {
		return false
	}
	if f.prop.Type == "street" {
		return f.level == 1
	}
	return true
}

func (b *BoardInformation) CanUnmortgage(name string, pos int) bool {
	f, ok := b.fields[pos]
	return ok && f.owner == name && f.mortgaged
}

// Purchase marks the field at pos as bought by the player. The price is not
// deducted here; cash belongs to the game loop.
func (b *BoardInformation) Purchase(name string, pos int) error {
	f, ok := b.fields[pos]
	if !ok {
		return ErrNotFound
	}
	if !f.canPurchase {
		return fmt.Errorf("%w: %s is not purchaseable", ErrIllegalAction, f.prop.Name)
	}
	f.owner = name
	f.canPurchase = false
	f.level = 1
	f.mortgaged = false
	return nil
}

func (b *BoardInformation) Upgrade(name string, pos int) error {
	if !b.CanUpgrade(name, pos) {
		return fmt.Errorf("%w: cannot upgrade %s", ErrIllegalAction, b.PropertyName(pos))
	}
	f := b.fields[pos]
	f.level++
	if f.level == 6 {
		b.availableHouses += 4
		b.availableHotels--
	} else {
		b.availableHouses--
	}
	return nil
}

func (b *BoardInformation) Downgrade(name string, pos int) error {
	if !b.CanDowngrade(name, pos) {
		return fmt.Errorf("%w: cannot downgrade %s", ErrIllegalAction, b.PropertyName(pos))
	}
	f := b.fields[pos]
	f.level--
	if f.level == 5 {
		b.availableHotels++
		b.availableHouses -= 4
	} else {
		b.availableHouses++
	}
	return nil
}

func (b *BoardInformation) Mortgage(name string, pos int) error {
	if !b.CanMortgage(name, pos) {
		return fmt.Errorf("%w: cannot mortgage %s", ErrIllegalAction, b.PropertyName(pos))
	}
	b.fields[pos].mortgaged = true
	return nil
}

func (b *BoardInformation) Unmortgage(name string, pos int) error {
	if !b.CanUnmortgage(name, pos) {
		return fmt.Errorf("%w: cannot unmortgage %s", ErrIllegalAction, b.PropertyName(pos))
	}
	b.fields[pos].mortgaged = false
	return nil
}

// TransferOwnership moves the field at pos from one player to another,
// keeping its level and mortgage state.
func (b *BoardInformation) TransferOwnership(from, to string, pos int) error {
	f, ok := b.fields[pos]
	if !ok {
		return ErrNotFound
	}
	if f.owner != from {
		return fmt.Errorf("%w: %s does not own %s", ErrIllegalAction, from, f.prop.Name)
	}
	f.owner = to
	return nil
}

// GetRent returns the rent due on the field at pos. Mortgaged and unowned
// fields collect nothing. Railroad rent doubles per railroad the owner
// holds, utility rent is a dice multiple.
func (b *BoardInformation) GetRent(pos, diceRoll int) int {
	f, ok := b.fields[pos]
	if !ok || f.owner == "" || f.mortgaged {
		return 0
	}
	switch f.prop.Type {
	case "railroad":
		n := b.countOwnedOfType(f.owner, "railroad")
		return f.prop.Rent << uint(n-1)
	case "utility":
		if b.countOwnedOfType(f.owner, "utility") >= 2 {
			return 10 * diceRoll
		}
		return 4 * diceRoll
	default:
		return f.prop.RentAtLevel(f.level)
	}
}

func (b *BoardInformation) countOwnedOfType(name, typ string) int {
	n := 0
	for _, f := range b.fields {
		if f.owner == name && f.prop.Type == typ && !f.mortgaged {
			n++
		}
	}
	return n
}

// PropertiesOwned returns the positions owned by the player in board order.
func (b *BoardInformation) PropertiesOwned(name string) []int {
	var out []int
	for _, pos := range b.positions {
		if b.fields[pos].owner == name {
			out = append(out, pos)
		}
	}
	return out
}

func (b *BoardInformation) AmountPropertiesOwned(name string) int {
	return len(b.PropertiesOwned(name))
}

func (b *BoardInformation) TotalLevelsOwned(name string) int {
	total := 0
	for _, pos := range b.PropertiesOwned(name) {
		total += b.fields[pos].level
	}
	return total
}

// Snapshot renders the visible board state for a model observation.
func (b *BoardInformation) Snapshot() ai.BoardState {
	state := ai.BoardState{
		AvailableHouses: b.availableHouses,
		AvailableHotels: b.availableHotels,
		FreeParkingCash: b.freeParkingCash,
		MaxCashLimit:    b.maxCashLimit,
	}
	for _, pos := range b.positions {
		f := b.fields[pos]
		level := f.level
		if f.mortgaged {
			level = 0
		}
		state.Fields = append(state.Fields, ai.FieldState{
			Position:    pos,
			Owner:       f.owner,
			Level:       level,
			CanPurchase: f.canPurchase,
			Price:       f.prop.Price,
			Rent:        b.GetRent(pos, 7),
			Monopoly:    b.IsMonopoly(pos),
		})
	}
	return state
}
