package protocol

import (
	"context"
)

func (d *Dispatcher) handleWordTimer() *Response {
	return NewResponse(StatusOK, "Word timer").
		With("remainingTime", d.rotator.TimeRemaining().Milliseconds())
}

func (d *Dispatcher) handleStatistics(ctx context.Context, username string) *Response {
	stats, err := d.store.UserStatistics(ctx, username)
	if err != nil {
		return d.storageError("sendMeStatistics", err)
	}
	return NewResponse(StatusOK, "Statistics").
		With("gamesPlayed", stats.GamesPlayed).
		With("gamesWonPct", stats.GamesWonPct).
		With("lastStreak", stats.CurrentStreak).
		With("maxStreak", stats.LongestStreak).
		With("guessDistribution", stats.GuessDistribution[:])
}

func (d *Dispatcher) handleRanking(ctx context.Context) *Response {
	order, err := d.store.Ranking(ctx)
	if err != nil {
		return d.storageError("showMeRanking", err)
	}
	return NewResponse(StatusOK, "Ranking").
		With("ranking", order)
}

func (d *Dispatcher) handleMulticast() *Response {
	return NewResponse(StatusOK, "Multicast parameters").
		With("multicastIp", d.config.MulticastAddress).
		With("multicastPort", d.config.MulticastPort)
}

func (d *Dispatcher) handleCurrentWord(_ *Request) *Response {
	current, ok := d.rotator.Current()
	if !ok {
		return NewResponse(StatusBadRequest, "No secret word in play yet")
	}
	return NewResponse(StatusOK, "Current word").
		With("currentWord", current.Word).
		With("translation", current.Translation).
		With("wordId", current.ID)
}
