package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Session:
		o.printSession(v)
	case RoundStart:
		o.printRoundStart(v)
	case GuessResult:
		o.printGuessResult(v)
	case RoundStatus:
		o.printRoundStatus(v)
	case RoundHistory:
		o.printRoundHistory(v)
	case Statistics:
		o.printStatistics(v)
	case Ranking:
		o.printRanking(v)
	case Timer:
		o.printTimer(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Session is the login result
type Session struct {
	Username      string `json:"username"`
	Token         string `json:"token"`
	MulticastIP   string `json:"multicastIp"`
	MulticastPort int    `json:"multicastPort"`
}

// RoundStart is the playWordle result
type RoundStart struct {
	WordID  int    `json:"wordId"`
	Details string `json:"details"`
}

// GuessResult is the sendWord result
type GuessResult struct {
	Guess            string `json:"guess"`
	WordExists       bool   `json:"wordExists"`
	Hint             string `json:"hint,omitempty"`
	RemainingGuesses int    `json:"remainingGuesses"`
	Won              bool   `json:"won"`
	Translation      string `json:"translation,omitempty"`
	Details          string `json:"details,omitempty"`
}

// RoundStatus is the getGameStatus result
type RoundStatus struct {
	IsPlaying bool `json:"isPlaying"`
	WordID    int  `json:"wordId"`
}

// RoundHistory is the getGameHistory result
type RoundHistory struct {
	WordID  int      `json:"wordId"`
	Guesses []string `json:"guessHistory"`
	Hints   []string `json:"hintHistory"`
}

// Statistics is the sendMeStatistics result
type Statistics struct {
	GamesPlayed       int     `json:"gamesPlayed"`
	GamesWonPct       float64 `json:"gamesWonPct"`
	LastStreak        int     `json:"lastStreak"`
	MaxStreak         int     `json:"maxStreak"`
	GuessDistribution []int   `json:"guessDistribution"`
}

// Ranking is the showMeRanking result
type Ranking struct {
	Order []string `json:"ranking"`
}

// Timer is the wordTimer result
type Timer struct {
	Remaining time.Duration `json:"remainingTime"`
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Logged in as %s\n", s.Username)
	fmt.Printf("Token: %s\n", s.Token)
	if s.MulticastIP != "" {
		fmt.Printf("Share group: %s:%d\n", s.MulticastIP, s.MulticastPort)
	}
}

func (o *Output) printRoundStart(r RoundStart) {
	if r.Details != "" {
		fmt.Println(r.Details)
	}
	fmt.Printf("Word ID: %d\n", r.WordID)
}

func (o *Output) printGuessResult(g GuessResult) {
	if !g.WordExists {
		fmt.Printf("%s is not in the dictionary, guess not counted\n", g.Guess)
		return
	}

	fmt.Printf("Hint: %s\n", g.Hint)
	fmt.Printf("Remaining guesses: %d\n", g.RemainingGuesses)

	if g.Won {
		fmt.Println("You won!")
	}
	if g.Translation != "" {
		fmt.Printf("Translation: %s\n", g.Translation)
	}
	if !g.Won && g.RemainingGuesses == 0 {
		fmt.Println("Out of guesses, better luck next word")
	}
}

func (o *Output) printRoundStatus(r RoundStatus) {
	if !r.IsPlaying {
		fmt.Println("No round in progress")
		return
	}
	fmt.Printf("Playing word %d\n", r.WordID)
}

func (o *Output) printRoundHistory(r RoundHistory) {
	if len(r.Guesses) == 0 {
		fmt.Printf("No guesses for word %d\n", r.WordID)
		return
	}
	fmt.Printf("Round %d (%d guesses):\n", r.WordID, len(r.Guesses))
	for i, guess := range r.Guesses {
		hint := ""
		if i < len(r.Hints) {
			hint = r.Hints[i]
		}
		fmt.Printf("  %2d. %s  %s\n", i+1, guess, hint)
	}
}

func (o *Output) printStatistics(s Statistics) {
	fmt.Printf("Games played: %d\n", s.GamesPlayed)
	fmt.Printf("Games won: %.0f%%\n", s.GamesWonPct*100)
	fmt.Printf("Current streak: %d\n", s.LastStreak)
	fmt.Printf("Longest streak: %d\n", s.MaxStreak)
	fmt.Println("Guess distribution:")
	for i, count := range s.GuessDistribution {
		fmt.Printf("  %2d: %d\n", i+1, count)
	}
}

func (o *Output) printRanking(r Ranking) {
	if len(r.Order) == 0 {
		fmt.Println("Ranking is empty")
		return
	}
	fmt.Println("Ranking:")
	for i, username := range r.Order {
		fmt.Printf("  %d. %s\n", i+1, username)
	}
}

func (o *Output) printTimer(t Timer) {
	fmt.Printf("Current word rotates in %s\n", t.Remaining.Round(time.Second))
}
