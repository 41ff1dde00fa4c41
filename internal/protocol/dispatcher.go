package protocol

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ettorre/wordarena/internal/broadcast"
	"github.com/ettorre/wordarena/internal/rotation"
	"github.com/ettorre/wordarena/internal/session"
	"github.com/ettorre/wordarena/internal/storage"
	"github.com/ettorre/wordarena/internal/words"
)

// Sharer emits a finished game to the multicast group.
type Sharer interface {
	Share(game broadcast.SharedGame) error
}

// Translator resolves a word's translation for terminal game responses.
type Translator interface {
	Translate(ctx context.Context, word string) string
}

// Config carries the dispatcher's client-facing settings.
type Config struct {
	MulticastAddress string
	MulticastPort    int
	// Debug enables the current-word endpoint, which reveals the secret
	Debug bool
	// Verbose logs every request and response status
	Verbose bool
}

// Dispatcher routes parsed requests to endpoint handlers. It is safe for
// concurrent use; all shared state lives behind the store, the session
// table, and the rotator.
type Dispatcher struct {
	store      storage.Store
	sessions   *session.Table
	rotator    *rotation.Rotator
	words      *words.Service
	sharer     Sharer
	translator Translator
	config     Config
	logger     *slog.Logger

	// onStorageFailure is called when storage breaks mid-request; the
	// process is expected to shut down rather than limp along
	onStorageFailure func(error)
}

func NewDispatcher(
	store storage.Store,
	sessions *session.Table,
	rotator *rotation.Rotator,
	wordList *words.Service,
	sharer Sharer,
	translator Translator,
	config Config,
	onStorageFailure func(error),
	logger *slog.Logger,
) *Dispatcher {
	if onStorageFailure == nil {
		onStorageFailure = func(error) {}
	}
	return &Dispatcher{
		store:            store,
		sessions:         sessions,
		rotator:          rotator,
		words:            wordList,
		sharer:           sharer,
		translator:       translator,
		config:           config,
		logger:           logger.With(slog.String("component", "dispatcher")),
		onStorageFailure: onStorageFailure,
	}
}

// Handle executes one request and always produces a response; handler
// panics become a 500.
func (d *Dispatcher) Handle(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panic",
				slog.String("endpoint", req.Endpoint),
				slog.Any("panic", r))
			resp = NewResponse(StatusInternal, "Internal server error")
		}
	}()

	resp = d.route(ctx, req)

	if d.config.Verbose {
		d.logger.Info("handled request",
			slog.String("method", req.Method),
			slog.String("endpoint", req.Endpoint),
			slog.Int("status", resp.Status))
	}
	return resp
}

func (d *Dispatcher) route(ctx context.Context, req *Request) *Response {
	// CORS preflight always succeeds with no body
	if req.Method == http.MethodOptions {
		return NewResponse(StatusOK, "")
	}

	switch req.Endpoint {
	case "register":
		return d.handleRegister(ctx, req)
	case "login":
		return d.handleLogin(ctx, req)
	case "getCurrentWord":
		// only enabled in debug builds, since it reveals the secret
		if !d.config.Debug {
			return NewResponse(StatusNotSupported, "Not supported")
		}
		return d.handleCurrentWord(req)
	}

	// Everything below requires an authenticated session
	username, authResp := d.authenticate(req)
	if authResp != nil {
		return authResp
	}

	switch req.Endpoint {
	case "verify":
		return d.handleVerify(req)
	case "logout":
		return d.handleLogout(ctx, username, req)
	case "playWordle":
		return d.handlePlay(ctx, username)
	case "sendWord":
		return d.handleSendWord(ctx, username, req)
	case "getGameStatus":
		return d.handleGameStatus(ctx, username)
	case "getGameHistory":
		return d.handleGameHistory(ctx, username, req)
	case "wordTimer":
		return d.handleWordTimer()
	case "sendMeStatistics":
		return d.handleStatistics(ctx, username)
	case "showMeRanking":
		return d.handleRanking(ctx)
	case "share":
		return d.handleShare(ctx, username, req)
	case "getMulticast":
		return d.handleMulticast()
	}
	return NewResponse(StatusNotSupported, "Not supported")
}

// authenticate resolves the request's username/token pair against the
// session table. A nil response means the caller may proceed.
func (d *Dispatcher) authenticate(req *Request) (string, *Response) {
	username := req.Param("username")
	token := req.Param("token")
	if username == "" || token == "" {
		return "", NewResponse(StatusNotAuthorized, "Not authorized")
	}
	sessionUser, ok := d.sessions.Resolve(token)
	if !ok || sessionUser != username {
		return "", NewResponse(StatusNotAuthorized, "Not authorized")
	}
	return username, nil
}

// storageError logs the failure, flags the process for shutdown, and
// produces the client-facing 500.
func (d *Dispatcher) storageError(endpoint string, err error) *Response {
	d.logger.Error("storage failure",
		slog.String("endpoint", endpoint),
		slog.Any("error", err))
	d.onStorageFailure(err)
	return NewResponse(StatusInternal, "Internal server error")
}
