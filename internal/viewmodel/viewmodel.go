package viewmodel

// MinigameOption is a minigame choice on the home page.
type MinigameOption struct {
	ID     string
	Name   string
	Reward int
	Shapes int
}

// DifficultyOption is a difficulty choice for the create-run form.
type DifficultyOption struct {
	Value    string
	Label    string
	Seconds  int
	Selected bool
}

// BrushOption is a cosmetic brush choice.
type BrushOption struct {
	Value    string
	Label    string
	Selected bool
}

// HomePage holds data for the minigame select page.
type HomePage struct {
	Title        string
	Minigames    []MinigameOption
	Difficulties []DifficultyOption
	Brushes      []BrushOption
	DevMode      bool
}

// RunPage holds data for the game page template.
type RunPage struct {
	Title  string
	RunID  string
	Board  Board
	HUD    HUD
	Brush  string
	Volume float64
}

// SVGShape is one recorded draw call rendered as SVG.
type SVGShape struct {
	Kind   string
	Points string
	CX     float64
	CY     float64
	RX     float64
	RY     float64
	Stroke string
	Width  float64
}

// Board holds data for the board fragment: target, guides and labels.
type Board struct {
	RunID        string
	Phase        string
	Label        string
	Width        float64
	Height       float64
	Shapes       []SVGShape
	MinigameName string
	Index        int
	Total        int
	Drawn        []int
	Key          string
}

// HUD holds data for the lives, coins and timer panel.
type HUD struct {
	RunID    string
	Lives    int
	MaxLives int
	Coins    int
	Seconds  string
	Notice   string
	Over     bool
	Reason   string
	DevMode  bool
	Frozen   bool
	Timed    bool
}
