package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Guessing round commands",
	}

	cmd.AddCommand(newGamePlayCmd())
	cmd.AddCommand(newGameGuessCmd())
	cmd.AddCommand(newGameStatusCmd())
	cmd.AddCommand(newGameHistoryCmd())
	cmd.AddCommand(newGameShareCmd())

	return cmd
}

func newGamePlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Start (or resume) a round against the current word",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.Post("playWordle", nil)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(RoundStart{
				WordID:  reply.Int("wordId"),
				Details: reply.Details,
			})
			return nil
		},
	}
}

func newGameGuessCmd() *cobra.Command {
	var wordID int

	cmd := &cobra.Command{
		Use:   "guess <word>",
		Short: "Submit a guess for the round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The server matches guesses verbatim and the shipped word
			// list is uppercase
			guess := strings.ToUpper(args[0])
			reply, err := client.Post("sendWord", map[string]string{
				"wordId": strconv.Itoa(wordID),
				"word":   guess,
			})
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(GuessResult{
				Guess:            guess,
				WordExists:       reply.Bool("wordExists"),
				Hint:             reply.Str("hint"),
				RemainingGuesses: reply.Int("remainingGuesses"),
				Won:              reply.Bool("won"),
				Translation:      reply.Str("translation"),
				Details:          reply.Details,
			})
			return nil
		},
	}

	cmd.Flags().IntVar(&wordID, "word-id", 0, "Round word id from 'game play' (required)")
	_ = cmd.MarkFlagRequired("word-id")

	return cmd
}

func newGameStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a round is open and for which word",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.Get("getGameStatus", nil)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(RoundStatus{
				IsPlaying: reply.Bool("isPlaying"),
				WordID:    reply.Int("wordId"),
			})
			return nil
		},
	}
}

func newGameHistoryCmd() *cobra.Command {
	var wordID int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the guesses and hints of a round",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.Get("getGameHistory", map[string]string{
				"wordId": strconv.Itoa(wordID),
			})
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(RoundHistory{
				WordID:  wordID,
				Guesses: reply.Strings("guessHistory"),
				Hints:   reply.Strings("hintHistory"),
			})
			return nil
		},
	}

	cmd.Flags().IntVar(&wordID, "word-id", 0, "Round word id (required)")
	_ = cmd.MarkFlagRequired("word-id")

	return cmd
}

func newGameShareCmd() *cobra.Command {
	var wordID int

	cmd := &cobra.Command{
		Use:   "share",
		Short: "Share a finished round with the multicast group",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.Post("share", map[string]string{
				"wordId": strconv.Itoa(wordID),
			})
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(reply.Details)
			return nil
		},
	}

	cmd.Flags().IntVar(&wordID, "word-id", 0, "Round word id (required)")
	_ = cmd.MarkFlagRequired("word-id")

	return cmd
}
