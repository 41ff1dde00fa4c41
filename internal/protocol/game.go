package protocol

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/ettorre/wordarena/internal/broadcast"
	"github.com/ettorre/wordarena/internal/game"
	"github.com/ettorre/wordarena/internal/model"
)

func (d *Dispatcher) handlePlay(ctx context.Context, username string) *Response {
	current, ok := d.rotator.Current()
	if !ok {
		return NewResponse(StatusBadRequest, "No secret word in play yet")
	}

	err := d.store.InsertGame(ctx, username, current.Word)
	if err == nil {
		return NewResponse(StatusOK, "Game started").
			With("wordId", current.ID)
	}
	if !errors.Is(err, model.ErrGameExists) {
		return d.storageError("playWordle", err)
	}

	// A game already exists: open means resume, closed means wait for the
	// next rotation
	closed, err := d.store.IsGameClosed(ctx, username, current.Word)
	if err != nil {
		return d.storageError("playWordle", err)
	}
	if !closed {
		return NewResponse(StatusBadRequest, "Game already started").
			With("wordId", current.ID)
	}
	won, err := d.store.IsGameWon(ctx, username, current.Word)
	if err != nil {
		return d.storageError("playWordle", err)
	}
	return NewResponse(StatusBadRequest, "Wait for the next word").
		With("won", won)
}

func (d *Dispatcher) handleSendWord(ctx context.Context, username string, req *Request) *Response {
	wordID, err := strconv.Atoi(req.Param("wordId"))
	if err != nil {
		return NewResponse(StatusBadRequest, "The word has changed").
			With("code", CodeStaleRound)
	}
	current, ok := d.rotator.Current()
	if !ok || wordID != current.ID {
		return NewResponse(StatusBadRequest, "The word has changed").
			With("code", CodeStaleRound)
	}

	used, err := d.store.GuessCount(ctx, username, wordID)
	if err != nil {
		return d.storageError("sendWord", err)
	}
	if used == -1 {
		return NewResponse(StatusBadRequest, "No game started for this word").
			With("code", CodeNoGame)
	}
	won, err := d.store.IsGameWon(ctx, username, current.Word)
	if err != nil {
		return d.storageError("sendWord", err)
	}
	if won {
		return NewResponse(StatusBadRequest, "You already won!").
			With("code", CodeAlreadyWon)
	}
	closed, err := d.store.IsGameClosed(ctx, username, current.Word)
	if err != nil {
		return d.storageError("sendWord", err)
	}
	if closed || used >= model.MaxGuesses {
		return NewResponse(StatusBadRequest, "No guesses remaining").
			With("remainingGuesses", 0)
	}

	// A guess outside the dictionary never consumes an attempt
	guess := req.Param("word")
	if !d.words.Contains(guess) {
		return NewResponse(StatusOK, "Word not in the dictionary").
			With("wordExists", false).
			With("remainingGuesses", model.MaxGuesses-used)
	}

	hint := game.Hint(current.Word, guess)
	if err := d.store.RecordGuess(ctx, username, current.Word, guess, hint); err != nil {
		return d.storageError("sendWord", err)
	}
	used++

	resp := NewResponse(StatusOK, "Keep trying").
		With("wordExists", true).
		With("hint", hint).
		With("remainingGuesses", model.MaxGuesses-used).
		With("won", false)

	switch {
	case guess == current.Word:
		if err := d.store.SetVictory(ctx, username, current.Word); err != nil {
			return d.storageError("sendWord", err)
		}
		if err := d.store.CloseGame(ctx, username, current.Word); err != nil {
			return d.storageError("sendWord", err)
		}
		resp.Details = "You guessed the word!"
		resp.With("won", true).
			With("translation", d.translator.Translate(ctx, current.Word))

	case used == model.MaxGuesses:
		if err := d.store.CloseGame(ctx, username, current.Word); err != nil {
			return d.storageError("sendWord", err)
		}
		if err := d.store.ResetUserStreak(ctx, username); err != nil {
			return d.storageError("sendWord", err)
		}
		resp.Details = "Out of guesses"
		resp.With("translation", d.translator.Translate(ctx, current.Word))
	}
	return resp
}

func (d *Dispatcher) handleGameStatus(ctx context.Context, username string) *Response {
	current, ok := d.rotator.Current()
	if !ok {
		return NewResponse(StatusOK, "No secret word in play yet").
			With("isPlaying", false).
			With("wordId", -1)
	}
	playing, err := d.store.IsPlaying(ctx, username, current.Word)
	if err != nil {
		return d.storageError("getGameStatus", err)
	}
	wordID := -1
	if playing {
		wordID = current.ID
	}
	return NewResponse(StatusOK, "Game status").
		With("isPlaying", playing).
		With("wordId", wordID)
}

func (d *Dispatcher) handleGameHistory(ctx context.Context, username string, req *Request) *Response {
	wordID, err := strconv.Atoi(req.Param("wordId"))
	if err != nil {
		return NewResponse(StatusBadRequest, "Invalid word id")
	}
	guesses, err := d.store.GuessHistory(ctx, username, wordID)
	if err != nil {
		return d.storageError("getGameHistory", err)
	}
	hints, err := d.store.HintHistory(ctx, username, wordID)
	if err != nil {
		return d.storageError("getGameHistory", err)
	}
	return NewResponse(StatusOK, "Game history").
		With("guessHistory", guesses).
		With("hintHistory", hints)
}

func (d *Dispatcher) handleShare(ctx context.Context, username string, req *Request) *Response {
	wordID, err := strconv.Atoi(req.Param("wordId"))
	if err != nil {
		return NewResponse(StatusBadRequest, "Invalid word id")
	}
	word, err := d.store.WordByID(ctx, wordID)
	if err != nil {
		return d.storageError("share", err)
	}
	if word == "" {
		return NewResponse(StatusBadRequest, "Unknown word id")
	}
	used, err := d.store.GuessCount(ctx, username, wordID)
	if err != nil {
		return d.storageError("share", err)
	}
	if used == -1 {
		return NewResponse(StatusBadRequest, "No game for this word").
			With("code", CodeNoGame)
	}
	won, err := d.store.IsGameWon(ctx, username, word)
	if err != nil {
		return d.storageError("share", err)
	}
	hints, err := d.store.HintHistory(ctx, username, wordID)
	if err != nil {
		return d.storageError("share", err)
	}

	// The field carries the used-guess count under its historical name
	shared := broadcast.SharedGame{
		Username:         username,
		Hints:            model.SplitHistory(hints),
		RemainingGuesses: used,
		Won:              won,
	}
	if err := d.sharer.Share(shared); err != nil {
		// best-effort: the group being unreachable is not the caller's
		// problem
		d.logger.Warn("share broadcast failed", slog.Any("error", err))
	}
	return NewResponse(StatusOK, "Shared!")
}
