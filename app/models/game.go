package models

type Game struct {
	Id     string
	Name   string
	Status string
	Type   string
}

type GameCreateDto struct {
	Name string
	Type string
}

type VerifyGameDto struct {
	Code string
}

// GameResult is the per-player outcome row persisted after a simulation.
type GameResult struct {
	Id           string
	GameId       string
	Player       string
	Cash         int
	PropsOwned   int
	AverageLevel float64
	TurnCount    int
}
