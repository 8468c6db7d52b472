package xrpc

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Session caches the numeric user id obtained from the authentication
// endpoint. The id is written at most once per Session lifetime; a failed
// authentication leaves it unset so a later call can retry. Sessions are
// explicit values passed to every caller, never hidden singletons.
type Session struct {
	client   *Client
	database string
	username string
	password string
	logger   *zap.Logger

	mu            sync.Mutex
	uid           int64
	authenticated bool
}

// NewSession creates a session against the given database and credentials.
func NewSession(client *Client, database, username, password string) *Session {
	return &Session{
		client:   client,
		database: database,
		username: username,
		password: password,
		logger:   zap.NewNop(),
	}
}

// WithLogger sets the session logger.
func (s *Session) WithLogger(logger *zap.Logger) *Session {
	s.logger = logger
	return s
}

// Authenticate returns the cached user id, calling the authentication
// endpoint on first use. Idempotent: concurrent callers share one exchange.
func (s *Session) Authenticate(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authenticated {
		return s.uid, nil
	}

	result, err := s.client.Call(ctx, EndpointCommon, "authenticate", []Value{
		StringValue(s.database),
		StringValue(s.username),
		StringValue(s.password),
		StructValue(),
	})
	if err != nil {
		return 0, fmt.Errorf("authenticate: %w", err)
	}

	// The endpoint reports bad credentials as a falsy value, not a fault.
	// A falsy answer is never a valid id of 0.
	if !result.IsTruthy() || result.Kind() != Int {
		return 0, fmt.Errorf("%w: database %q, user %q", ErrAuthFailed, s.database, s.username)
	}

	s.uid = result.Int()
	s.authenticated = true
	s.logger.Debug("session authenticated",
		zap.String("database", s.database),
		zap.Int64("uid", s.uid),
	)
	return s.uid, nil
}

// ExecuteKW runs a model method on the object-execution endpoint,
// authenticating first if needed. The trailing keyword struct is omitted
// entirely when kwargs is empty: the server rejects unexpected trailing
// arguments on methods without keyword options.
func (s *Session) ExecuteKW(
	ctx context.Context, model, method string, args []Value, kwargs []Member,
) (Value, error) {
	uid, err := s.Authenticate(ctx)
	if err != nil {
		return Value{}, err
	}

	params := []Value{
		StringValue(s.database),
		IntValue(uid),
		StringValue(s.password),
		StringValue(model),
		StringValue(method),
		ListValue(args...),
	}
	if len(kwargs) > 0 {
		params = append(params, StructValue(kwargs...))
	}

	result, err := s.client.Call(ctx, EndpointObject, "execute_kw", params)
	if err != nil {
		return Value{}, fmt.Errorf("execute %s.%s: %w", model, method, err)
	}
	return result, nil
}

// Version queries the common endpoint, used as a connectivity check. It
// does not require authentication.
func (s *Session) Version(ctx context.Context) (Value, error) {
	result, err := s.client.Call(ctx, EndpointCommon, "version", nil)
	if err != nil {
		return Value{}, fmt.Errorf("version: %w", err)
	}
	return result, nil
}
