// Package session holds the authenticated operator profile backing
// audit identity and the route guard. It is created once at startup and
// injected where needed; there is no package-global session state.
package session

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/certiko/backoffice/storage/state"
)

// audit sentinels sent when no session exists; part of the backend's
// audit-header contract
const (
	UnknownUser    = "Desconocido Front"
	UnknownCompany = "Desconocida Front"
)

// User is the authenticated profile as returned by the backend.
type User struct {
	Usuario       string `json:"usuario"`
	Nombre        string `json:"nombre,omitempty"`
	Correo        string `json:"correo,omitempty"`
	Rol           string `json:"rol,omitempty"`
	Empresa       string `json:"empresa,omitempty"`
	NombreEmpresa string `json:"nombre_empresa,omitempty"`
	Estado        bool   `json:"estado,omitempty"`
}

func (u User) IsSuperAdmin() bool { return u.Rol == "superadmin" }

// Manager reads and writes the session through the persisted client
// state store.
type Manager struct {
	store state.Store
}

func NewManager(store state.Store) *Manager {
	return &Manager{store: store}
}

// Login persists the authenticated profile.
func (m *Manager) Login(usr User) error {
	data, err := json.Marshal(usr)
	if err != nil {
		return errors.Wrap(err, "encoding session user")
	}
	return m.store.Set(state.KeyUser, string(data))
}

// Current returns the logged-in profile. An absent or corrupt stored
// entry means "no session"; a corrupt entry is also removed.
func (m *Manager) Current() (User, bool) {
	raw, err := m.store.Get(state.KeyUser)
	if err != nil {
		return User{}, false
	}
	var usr User
	if err := json.Unmarshal([]byte(raw), &usr); err != nil {
		_ = m.store.Delete(state.KeyUser)
		return User{}, false
	}
	return usr, true
}

// Logout destroys the session.
func (m *Manager) Logout() error {
	return m.store.Delete(state.KeyUser)
}

// Audit returns the acting user and tenant identifying this client on
// every backend call, falling back to the unknown sentinels.
func (m *Manager) Audit() (usuario, nombreEmpresa string) {
	usr, ok := m.Current()
	if !ok || usr.Usuario == "" {
		usuario = UnknownUser
	} else {
		usuario = usr.Usuario
	}
	if !ok || usr.NombreEmpresa == "" {
		nombreEmpresa = UnknownCompany
	} else {
		nombreEmpresa = usr.NombreEmpresa
	}
	return usuario, nombreEmpresa
}

// RememberUsername stores the username offered back on the login form.
func (m *Manager) RememberUsername(uname string) error {
	if uname == "" {
		return m.store.Delete(state.KeyRememberedUser)
	}
	return m.store.Set(state.KeyRememberedUser, uname)
}

// RememberedUsername returns the stored username, if any.
func (m *Manager) RememberedUsername() string {
	uname, err := m.store.Get(state.KeyRememberedUser)
	if err != nil {
		return ""
	}
	return uname
}
