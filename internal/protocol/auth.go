package protocol

import (
	"context"
	"errors"

	"github.com/ettorre/wordarena/internal/model"
)

func (d *Dispatcher) handleRegister(ctx context.Context, req *Request) *Response {
	username := req.Param("username")
	password := req.Param("password")
	if username == "" || password == "" {
		return NewResponse(StatusBadRequest, "Username and password are required")
	}

	err := d.store.InsertUser(ctx, username, password, model.RoleUser)
	if errors.Is(err, model.ErrUserExists) {
		return NewResponse(StatusConflict, "Username already taken")
	}
	if err != nil {
		return d.storageError("register", err)
	}
	return NewResponse(StatusOK, "Registered")
}

func (d *Dispatcher) handleLogin(ctx context.Context, req *Request) *Response {
	username := req.Param("username")
	password := req.Param("password")
	if username == "" || password == "" {
		return NewResponse(StatusBadRequest, "Username and password are required")
	}

	auth, err := d.store.ValidateUser(ctx, username, password)
	if errors.Is(err, model.ErrUserNotFound) {
		return NewResponse(StatusNotAuthorized, "Invalid credentials")
	}
	if err != nil {
		return d.storageError("login", err)
	}
	if auth == model.NotAuthorized {
		return NewResponse(StatusNotAuthorized, "Invalid credentials")
	}

	token, existing := d.sessions.Create(username)
	if existing {
		// Renewal path: clients expect the existing token back on a 400
		d.sessions.Renew(token)
		return NewResponse(StatusBadRequest, "Already logged in!").
			With("token", token)
	}
	return NewResponse(StatusOK, "Logged in").
		With("token", token).
		With("multicastIp", d.config.MulticastAddress).
		With("multicastPort", d.config.MulticastPort)
}

func (d *Dispatcher) handleVerify(req *Request) *Response {
	// authenticate already matched the token; renewing refreshes its
	// timestamp
	d.sessions.Renew(req.Param("token"))
	return NewResponse(StatusOK, "Session renewed").
		With("token", "True")
}

func (d *Dispatcher) handleLogout(ctx context.Context, username string, req *Request) *Response {
	d.sessions.Remove(req.Param("token"))

	// An open game on the current word is forfeited by logging out
	current, ok := d.rotator.Current()
	if !ok {
		return NewResponse(StatusOK, "Logged out")
	}
	playing, err := d.store.IsPlaying(ctx, username, current.Word)
	if err != nil {
		return d.storageError("logout", err)
	}
	if playing {
		won, err := d.store.IsGameWon(ctx, username, current.Word)
		if err != nil {
			return d.storageError("logout", err)
		}
		if err := d.store.CloseGame(ctx, username, current.Word); err != nil {
			return d.storageError("logout", err)
		}
		if !won {
			if err := d.store.ResetUserStreak(ctx, username); err != nil {
				return d.storageError("logout", err)
			}
		}
	}
	return NewResponse(StatusOK, "Logged out")
}
