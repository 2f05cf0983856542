package recordaccess

import (
	"fmt"

	"minutes/internal/api"
	"minutes/internal/store"
)

// Session represents a record access handle and its cleanup function.
type Session struct {
	Access Access
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback tries daemon-backed access first, then falls back to
// direct store access. dial must return a client only when the daemon
// answered.
func OpenWithFallback(
	dial func() (*api.Client, error),
	openStore func() (*store.Store, error),
	defaultGroup string,
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil && client != nil {
			return Session{Access: NewAPIAccess(client)}, nil
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open record store: no store opener configured")
	}
	st, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open record store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(st, defaultGroup),
		close:  st.Close,
	}, nil
}
