// Package state persists the application's client state (token, session
// profile, remembered username) as key-value entries across restarts.
package state

import "errors"

// well-known entry keys
const (
	KeyAccessToken     = "accessToken"
	KeyTokenExpiration = "tokenExpiration"
	KeyUser            = "usuario"
	KeyRememberedUser  = "rememberedUser"
)

var ErrNotFound = errors.New("state entry not found")

// Store is any key-value store for persisted client state.
// Absent entries read as ErrNotFound, never as a crash.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
