package board

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"monopoly-ai/platform/ai"
)

// Event is emitted for everything observable that happens in a simulation.
type Event struct {
	Type     string `json:"type"`
	Player   string `json:"player,omitempty"`
	Opponent string `json:"opponent,omitempty"`
	Position int    `json:"position,omitempty"`
	Amount   int    `json:"amount,omitempty"`
	Turn     int    `json:"turn"`
	Detail   string `json:"detail,omitempty"`
}

type EventFunc func(Event)

// Config tunes one simulated game. Zero values fall back to the classic
// defaults; the operation toggles mirror the flags of the original game
// setup and additionally require a bound model to take effect.
type Config struct {
	MaxTurn         int
	StartingCash    int
	MaxCashLimit    int
	AvailableHouses int
	AvailableHotels int
	Salary          int
	Purchase        bool
	UpDownGrade     bool
	Trade           bool
	Seed            int64
	OnEvent         EventFunc
}

func DefaultConfig() Config {
	return Config{Purchase: true, UpDownGrade: true, Trade: true}
}

func (c *Config) applyDefaults() {
	if c.MaxTurn == 0 {
		c.MaxTurn = 500
	}
	if c.StartingCash == 0 {
		c.StartingCash = 1500
	}
	if c.MaxCashLimit == 0 {
		c.MaxCashLimit = DefaultMaxCashLimit
	}
	if c.AvailableHouses == 0 {
		c.AvailableHouses = DefaultAvailableHouses
	}
	if c.AvailableHotels == 0 {
		c.AvailableHotels = DefaultAvailableHotels
	}
	if c.Salary == 0 {
		c.Salary = 200
	}
}

// Result is the per-player outcome of a finished game.
type Result struct {
	Name            string  `json:"name"`
	Cash            int     `json:"cash"`
	PropertiesOwned int     `json:"props_owned"`
	AverageLevel    float64 `json:"prop_average_level"`
	TurnCount       int     `json:"turn_count"`
}

// Controller drives a game from start to finish: turn order, dice, movement,
// action fields, rent, and the model-decided purchase, upgrade/downgrade and
// trade phases. Decisions come from the registry; the upgrade limit bounds
// how many upgrade/downgrade steps a player gets per turn.
type Controller struct {
	cfg      Config
	board    *BoardInformation
	players  map[string]*Player
	order    []string
	registry *ai.Registry
	rng      *rand.Rand

	alive       bool
	totalTurn   int
	currentTurn int
}

func NewController(playerNames []string, registry *ai.Registry, cfg Config) (*Controller, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: model registry is required", ErrIllegalAction)
	}
	cfg.applyDefaults()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	c := &Controller{
		cfg:      cfg,
		registry: registry,
		order:    append([]string(nil), playerNames...),
		rng:      rand.New(rand.NewSource(seed)),
	}
	if err := c.Reset(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reset rebuilds the board and all players to their starting values.
func (c *Controller) Reset() error {
	b, err := NewBoardInformation(c.order, c.cfg.MaxCashLimit, c.cfg.AvailableHouses, c.cfg.AvailableHotels)
	if err != nil {
		return err
	}
	players := make(map[string]*Player, len(c.order))
	for _, name := range c.order {
		p, err := NewPlayer(name, c.cfg.StartingCash)
		if err != nil {
			return err
		}
		players[name] = p
	}
	c.board = b
	c.players = players
	c.alive = true
	c.totalTurn = 0
	c.currentTurn = 0
	return nil
}

func (c *Controller) Board() *BoardInformation { return c.board }
func (c *Controller) Alive() bool              { return c.alive }
func (c *Controller) TotalTurns() int          { return c.totalTurn }

func (c *Controller) Player(name string) *Player {
	return c.players[name]
}

// Run plays the game until bankruptcy, the turn limit, or - when only the
// purchase operation is active - until nothing is left to purchase.
func (c *Controller) Run(ctx context.Context) (map[string]Result, error) {
	for c.alive {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := c.fullTurn(ctx, c.order[c.currentTurn]); err != nil {
			return nil, err
		}

		if c.alive && c.cfg.Purchase && !c.cfg.UpDownGrade && !c.cfg.Trade {
			c.alive = c.board.IsAnyPurchaseable()
		}
		if c.alive {
			c.alive = c.totalTurn < c.cfg.MaxTurn
		}
		if c.alive {
			c.currentTurn = (c.currentTurn + 1) % len(c.order)
		}
		c.totalTurn++
	}

	c.emit(Event{Type: "game-over", Turn: c.totalTurn})
	return c.Results(), nil
}

// Results summarizes the current standings per player.
func (c *Controller) Results() map[string]Result {
	out := make(map[string]Result, len(c.players))
	for name, p := range c.players {
		owned := c.board.AmountPropertiesOwned(name)
		avg := 0.0
		if owned > 0 {
			avg = float64(c.board.TotalLevelsOwned(name)) / float64(owned)
		}
		out[name] = Result{
			Name:            name,
			Cash:            p.Cash,
			PropertiesOwned: owned,
			AverageLevel:    avg,
			TurnCount:       c.totalTurn,
		}
	}
	return out
}

func (c *Controller) fullTurn(ctx context.Context, name string) error {
	p := c.players[name]
	if !p.CanMove {
		p.CanMove = true
		c.emit(Event{Type: "skip-turn", Player: name, Turn: c.totalTurn})
		return nil
	}

	d1, d2 := c.rng.Intn(6)+1, c.rng.Intn(6)+1
	pos := c.movePlayer(p, d1+d2)
	c.emit(Event{Type: "move", Player: name, Position: pos, Amount: d1 + d2, Turn: c.totalTurn})

	if c.board.IsActionField(pos) {
		c.landActionField(p, pos)
	} else if err := c.landProperty(ctx, p, pos, d1+d2); err != nil {
		return err
	}

	if c.alive && c.cfg.UpDownGrade && c.registry.Has(ai.UpDownGrade) {
		if err := c.upDownGradePhase(ctx, p); err != nil {
			return err
		}
	}
	if c.alive && c.cfg.Trade && c.registry.Has(ai.TradeOfferKind) && c.registry.Has(ai.TradeDecision) {
		if err := c.tradePhase(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) movePlayer(p *Player, roll int) int {
	newPos := (p.Position + roll) % boardSize
	if newPos < p.Position {
		p.Cash += c.cfg.Salary
	}
	p.Position = newPos
	return newPos
}

func (c *Controller) landActionField(p *Player, pos int) {
	act, ok := DrawAction(pos, c.rng)
	if !ok {
		return
	}
	switch act.Action {
	case "change":
		p.Cash += act.Payload
		if act.Payload < 0 {
			// fines and taxes pile up on free parking
			c.board.AddFreeParking(-act.Payload)
		}
		c.emit(Event{Type: "action", Player: p.Name, Position: pos, Amount: act.Payload, Turn: c.totalTurn, Detail: act.Info})
	case "parking":
		cash := c.board.CollectFreeParking()
		p.Cash += cash
		c.emit(Event{Type: "action", Player: p.Name, Position: pos, Amount: cash, Turn: c.totalTurn, Detail: act.Info})
	case "goto":
		switch act.Payload {
		case posGo:
			p.Position = posGo
			p.Cash += c.cfg.Salary
		case posJail:
			p.Position = posJail
			p.CanMove = false
		case posFreeParking:
			p.Position = posFreeParking
			p.Cash += c.board.CollectFreeParking()
		}
		c.emit(Event{Type: "goto", Player: p.Name, Position: act.Payload, Turn: c.totalTurn, Detail: act.Info})
	}
	c.checkBankrupt(p)
}

func (c *Controller) landProperty(ctx context.Context, p *Player, pos, diceRoll int) error {
	if c.board.CanPurchase(pos) {
		if !c.cfg.Purchase || !c.registry.Has(ai.Purchase) {
			return nil
		}
		m, err := c.registry.Resolve(ai.Purchase)
		if err != nil {
			return err
		}
		y, err := m.Decide(ctx, c.observe(ai.Purchase, p, nil, nil, m))
		if err != nil {
			return err
		}
		if len(y) > 0 && y[0] {
			if err := c.board.Purchase(p.Name, pos); err != nil {
				return err
			}
			p.Cash -= c.board.PurchasePrice(pos)
			c.emit(Event{Type: "purchase", Player: p.Name, Position: pos, Amount: c.board.PurchasePrice(pos), Turn: c.totalTurn})
			c.checkBankrupt(p)
		}
		return nil
	}

	owner := c.board.OwnerName(pos)
	if owner == "" || owner == p.Name {
		return nil
	}
	rent := c.board.GetRent(pos, diceRoll)
	p.Cash -= rent
	c.players[owner].Cash += rent
	c.emit(Event{Type: "rent", Player: p.Name, Opponent: owner, Position: pos, Amount: rent, Turn: c.totalTurn})
	c.checkBankrupt(p)
	return nil
}

// upDownGradePhase lets the mover change properties until the model selects
// nothing executable or the upgrade limit is reached. The decision vector
// has two halves over the board index: the first selects the property to
// upgrade or unmortgage, the second the one to downgrade or mortgage; the
// distinction is made automatically from the board state.
func (c *Controller) upDownGradePhase(ctx context.Context, p *Player) error {
	m, err := c.registry.Resolve(ai.UpDownGrade)
	if err != nil {
		return err
	}
	positions := c.board.Positions()

	for count := 0; count < c.registry.UpgradeLimit; count++ {
		y, err := m.Decide(ctx, c.observe(ai.UpDownGrade, p, nil, nil, m))
		if err != nil {
			return err
		}
		idx := firstTrue(y)
		if idx < 0 || idx >= 2*len(positions) {
			return nil
		}

		executed := false
		if idx < len(positions) {
			pos := positions[idx]
			switch {
			case c.board.CanUpgrade(p.Name, pos):
				p.Cash -= c.board.UpgradeAmount(pos)
				if err := c.board.Upgrade(p.Name, pos); err != nil {
					return err
				}
				c.emit(Event{Type: "upgrade", Player: p.Name, Position: pos, Amount: c.board.UpgradeAmount(pos), Turn: c.totalTurn})
				executed = true
			case c.board.CanUnmortgage(p.Name, pos):
				p.Cash -= c.board.MortgageAmount(pos)
				if err := c.board.Unmortgage(p.Name, pos); err != nil {
					return err
				}
				c.emit(Event{Type: "unmortgage", Player: p.Name, Position: pos, Amount: c.board.MortgageAmount(pos), Turn: c.totalTurn})
				executed = true
			}
		} else {
			pos := positions[idx-len(positions)]
			switch {
			case c.board.CanDowngrade(p.Name, pos):
				p.Cash += c.board.DowngradeAmount(pos)
				if err := c.board.Downgrade(p.Name, pos); err != nil {
					return err
				}
				c.emit(Event{Type: "downgrade", Player: p.Name, Position: pos, Amount: c.board.DowngradeAmount(pos), Turn: c.totalTurn})
				executed = true
			case c.board.CanMortgage(p.Name, pos):
				p.Cash += c.board.MortgageAmount(pos)
				if err := c.board.Mortgage(p.Name, pos); err != nil {
					return err
				}
				c.emit(Event{Type: "mortgage", Player: p.Name, Position: pos, Amount: c.board.MortgageAmount(pos), Turn: c.totalTurn})
				executed = true
			}
		}

		if c.checkBankrupt(p) || !executed {
			return nil
		}
	}
	return nil
}

func (c *Controller) tradePhase(ctx context.Context, p *Player) error {
	offerModel, err := c.registry.Resolve(ai.TradeOfferKind)
	if err != nil {
		return err
	}
	decisionModel, err := c.registry.Resolve(ai.TradeDecision)
	if err != nil {
		return err
	}
	positions := c.board.Positions()

	for _, oppName := range c.order {
		if oppName == p.Name {
			continue
		}
		opp := c.players[oppName]

		y, err := offerModel.Decide(ctx, c.observe(ai.TradeOfferKind, p, opp, nil, offerModel))
		if err != nil {
			return err
		}
		if len(y) < 2*len(positions) {
			continue
		}

		offer := &ai.TradeOffer{From: p.Name, To: oppName}
		for i, fired := range y[:len(positions)] {
			if fired && c.board.IsOwnedBy(p.Name, positions[i]) {
				offer.OfferProperties = append(offer.OfferProperties, positions[i])
			}
		}
		for i, fired := range y[len(positions) : 2*len(positions)] {
			if fired && c.board.IsOwnedBy(oppName, positions[i]) {
				offer.RequestProperties = append(offer.RequestProperties, positions[i])
			}
		}
		if len(offer.OfferProperties) == 0 && len(offer.RequestProperties) == 0 {
			continue
		}

		yd, err := decisionModel.Decide(ctx, c.observe(ai.TradeDecision, opp, p, offer, decisionModel))
		if err != nil {
			return err
		}
		if len(yd) == 0 || !yd[0] {
			c.emit(Event{Type: "trade-rejected", Player: p.Name, Opponent: oppName, Turn: c.totalTurn})
			continue
		}

		if err := c.transferProperties(p, opp, offer.OfferProperties); err != nil {
			return err
		}
		if err := c.transferProperties(opp, p, offer.RequestProperties); err != nil {
			return err
		}
		c.emit(Event{Type: "trade", Player: p.Name, Opponent: oppName, Turn: c.totalTurn,
			Detail: fmt.Sprintf("%d for %d properties", len(offer.OfferProperties), len(offer.RequestProperties))})
	}
	return nil
}

// transferProperties hands the listed positions over. Every affected color
// group is stripped back to bare properties first, crediting the seller for
// the buildings.
func (c *Controller) transferProperties(from, to *Player, list []int) error {
	seen := map[int]bool{}
	for _, pos := range list {
		for _, gp := range c.board.GroupPositions(pos) {
			if seen[gp] {
				continue
			}
			seen[gp] = true
			for c.board.CanDowngrade(from.Name, gp) {
				from.Cash += c.board.DowngradeAmount(gp)
				if err := c.board.Downgrade(from.Name, gp); err != nil {
					return err
				}
			}
		}
	}
	for _, pos := range list {
		if err := c.board.TransferOwnership(from.Name, to.Name, pos); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) observe(kind ai.Kind, p, opp *Player, offer *ai.TradeOffer, m *ai.OperationModel) ai.Observation {
	obs := ai.Observation{
		Operation: kind,
		Player:    playerState(p, m),
		Offer:     offer,
		Board:     c.board.Snapshot(),
	}
	if opp != nil {
		ps := playerState(opp, m)
		obs.Opponent = &ps
	}
	return obs
}

// playerState clamps the visible cash at the model's cash ceiling so the
// observation stays inside the range the model was configured for.
func playerState(p *Player, m *ai.OperationModel) ai.PlayerState {
	cash := p.Cash
	if m.MaxCashLimit > 0 && cash > m.MaxCashLimit {
		cash = m.MaxCashLimit
	}
	return ai.PlayerState{Name: p.Name, Cash: cash, Position: p.Position}
}

func (c *Controller) checkBankrupt(p *Player) bool {
	if p.Cash >= 0 {
		return false
	}
	c.alive = false
	c.emit(Event{Type: "bankrupt", Player: p.Name, Amount: p.Cash, Turn: c.totalTurn})
	return true
}

func (c *Controller) emit(e Event) {
	log.WithFields(log.Fields{
		"type":   e.Type,
		"player": e.Player,
		"turn":   e.Turn,
	}).Debug("game event")
	if c.cfg.OnEvent != nil {
		c.cfg.OnEvent(e)
	}
}

func firstTrue(y []bool) int {
	for i, v := range y {
		if v {
			return i
		}
	}
	return -1
}
