package board

import (
	_ "embed"
	"encoding/json"
	"errors"
	"math/rand"

	"monopoly-ai/app/models"
)

//go:embed properties.json
var propertiesJSON []byte

var (
	ErrNotFound      = errors.New("not found")
	ErrIllegalAction = errors.New("illegal board action")
)

const boardSize = 40

// Action field positions and the cards drawn on them.
const (
	posGo          = 0
	posJail        = 10
	posFreeParking = 20
	posGotoJail    = 30
)

var communityChest = []models.Special{
	{Info: "Bank error in your favor", Action: "change", Payload: 20},
	{Info: "Doctor's fee refund", Action: "change", Payload: 20},
	{Info: "Sale of stock", Action: "change", Payload: 20},
	{Info: "Holiday fund matures", Action: "change", Payload: 30},
	{Info: "Income tax refund", Action: "change", Payload: 30},
	{Info: "Life insurance matures", Action: "change", Payload: 40},
	{Info: "Consultancy fee", Action: "change", Payload: 50},
	{Info: "You inherit", Action: "change", Payload: 100},
}

var chance = []models.Special{
	{Info: "Speeding fine", Action: "change", Payload: -30},
	{Info: "Doctor's fee", Action: "change", Payload: -40},
	{Info: "School fees", Action: "change", Payload: -50},
	{Info: "General repairs", Action: "change", Payload: -50},
	{Info: "Street repairs", Action: "change", Payload: -80},
	{Info: "Hospital fees", Action: "change", Payload: -100},
	{Info: "Elected chairman", Action: "change", Payload: -150},
	{Info: "Bank pays dividend", Action: "change", Payload: 20},
	{Info: "Crossword prize", Action: "change", Payload: 30},
	{Info: "Building loan matures", Action: "change", Payload: 40},
	{Info: "Beauty contest prize", Action: "change", Payload: 50},
	{Info: "Matured bond", Action: "change", Payload: 80},
	{Info: "Dividend", Action: "change", Payload: 100},
	{Info: "Advance to Go", Action: "goto", Payload: posGo},
	{Info: "Go to jail", Action: "goto", Payload: posJail},
	{Info: "Advance to Free Parking", Action: "goto", Payload: posFreeParking},
}

var actionFields = map[int]string{
	posGo:          "go",
	2:              "chest",
	4:              "tax",
	7:              "chance",
	posJail:        "jail",
	17:             "chest",
	posFreeParking: "parking",
	22:             "chance",
	posGotoJail:    "gotojail",
	33:             "chest",
	36:             "chance",
	38:             "tax",
}

// DrawAction resolves the card or fixed effect of the action field at pos.
// The second return value is false when the field has no effect.
func DrawAction(pos int, rng *rand.Rand) (models.Special, bool) {
	switch actionFields[pos] {
	case "chest":
		return communityChest[rng.Intn(len(communityChest))], true
	case "chance":
		return chance[rng.Intn(len(chance))], true
	case "tax":
		if pos == 4 {
			return models.Special{Info: "Income tax", Action: "change", Payload: -200}, true
		}
		return models.Special{Info: "Luxury tax", Action: "change", Payload: -100}, true
	case "parking":
		return models.Special{Info: "Free parking", Action: "parking"}, true
	case "gotojail":
		return models.Special{Info: "Go to jail", Action: "goto", Payload: posJail}, true
	default:
		return models.Special{}, false
	}
}

// LoadProperties decodes the embedded board property table.
func LoadProperties() ([]models.Property, error) {
	var properties []models.Property
	if err := json.Unmarshal(propertiesJSON, &properties); err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		return nil, errors.New("empty property table")
	}
	return properties, nil
}

// GetByPos finds the property at a board position.
func GetByPos(pos int, properties []models.Property) (models.Property, error) {
	for _, property := range properties {
		if property.Position == pos {
			return property, nil
		}
	}
	return models.Property{}, ErrNotFound
}
