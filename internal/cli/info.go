package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your game statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.Get("sendMeStatistics", nil)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(Statistics{
				GamesPlayed:       reply.Int("gamesPlayed"),
				GamesWonPct:       reply.Float("gamesWonPct"),
				LastStreak:        reply.Int("lastStreak"),
				MaxStreak:         reply.Int("maxStreak"),
				GuessDistribution: reply.Ints("guessDistribution"),
			})
			return nil
		},
	}
}

func newRankingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranking",
		Short: "Show the current player ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.Get("showMeRanking", nil)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(Ranking{Order: reply.Strings("ranking")})
			return nil
		},
	}
}

func newTimerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timer",
		Short: "Show how long the current word stays in play",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.Get("wordTimer", nil)
			if err != nil {
				return err
			}

			remaining := time.Duration(reply.Int("remainingTime")) * time.Millisecond
			out := NewOutput(cfg.Output)
			out.Print(Timer{Remaining: remaining})
			return nil
		},
	}
}
