package moodle

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/certiko/backoffice/core"
)

// ErrEmailConflict reports an upsert where the submitted email already
// belongs to a Moodle account other than the one matching the username.
var ErrEmailConflict = errors.New("el correo ya pertenece a otro usuario")

// studentRoleID is Moodle's built-in student role, used for every
// enrollment created here.
const studentRoleID = 5

type User struct {
	ID        int    `json:"id,omitempty"`
	Username  string `json:"username"`
	Password  string `json:"-"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone1,omitempty"`
	City      string `json:"city,omitempty"`
}

// UserByUsername looks an account up by its exact username. A nil user
// with a nil error means no account matched.
func (svc *Service) UserByUsername(ctx context.Context, username string) (*User, error) {
	return svc.findUser(ctx, "username", username)
}

// UserByEmail looks an account up by its exact email.
func (svc *Service) UserByEmail(ctx context.Context, email string) (*User, error) {
	return svc.findUser(ctx, "email", email)
}

func (svc *Service) findUser(ctx context.Context, key, value string) (*User, error) {
	params := url.Values{
		"criteria[0][key]":   {key},
		"criteria[0][value]": {value},
	}
	var result struct {
		Users []User `json:"users"`
	}
	if err := svc.call(ctx, svc.httpClient, "core_user_get_users", params, &result); err != nil {
		return nil, err
	}
	if len(result.Users) == 0 {
		return nil, nil
	}
	return &result.Users[0], nil
}

// CreateOrUpdateUser upserts a catalog account keyed by username. When
// the submitted email is already registered to an account other than
// the one matching the username, the call fails with ErrEmailConflict
// rather than touching either account. The returned user carries the
// catalog id and, for newly created accounts, the generated password.
func (svc *Service) CreateOrUpdateUser(ctx context.Context, u User) (*User, error) {
	existing, err := svc.UserByUsername(ctx, u.Username)
	if err != nil {
		return nil, err
	}
	byEmail, err := svc.UserByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if byEmail != nil && byEmail.ID != existing.ID {
			return nil, ErrEmailConflict
		}
		u.ID = existing.ID
		if err := svc.UpdateUser(ctx, u); err != nil {
			return nil, err
		}
		return &u, nil
	}
	if byEmail != nil {
		return nil, ErrEmailConflict
	}
	return svc.CreateUser(ctx, u)
}

// CreateUser registers a new account. When no password is supplied one
// is generated to satisfy the site policy; email notifications are
// switched off for the new account.
func (svc *Service) CreateUser(ctx context.Context, u User) (*User, error) {
	if u.Password == "" {
		u.Password = GeneratePassword()
	}
	params := url.Values{
		"users[0][username]":  {u.Username},
		"users[0][password]":  {u.Password},
		"users[0][firstname]": {u.FirstName},
		"users[0][lastname]":  {u.LastName},
		"users[0][email]":     {u.Email},
	}
	if u.Phone != "" {
		params.Set("users[0][phone1]", u.Phone)
	}
	if u.City != "" {
		params.Set("users[0][city]", u.City)
	}
	var created []struct {
		ID int `json:"id"`
	}
	if err := svc.call(ctx, svc.httpClient, "core_user_create_users", params, &created); err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, core.NewIntegrationError("core_user_create_users", "empty response")
	}
	u.ID = created[0].ID
	if err := svc.disableNotifications(ctx, u.ID); err != nil && svc.log != nil {
		svc.log.Warn("moodle: could not disable notifications", "user", u.Username, "err", err)
	}
	return &u, nil
}

// UpdateUser refreshes the profile fields of an existing account and
// reapplies the notification opt-out.
func (svc *Service) UpdateUser(ctx context.Context, u User) error {
	params := url.Values{
		"users[0][id]":        {strconv.Itoa(u.ID)},
		"users[0][firstname]": {u.FirstName},
		"users[0][lastname]":  {u.LastName},
		"users[0][email]":     {u.Email},
	}
	if u.Phone != "" {
		params.Set("users[0][phone1]", u.Phone)
	}
	if u.City != "" {
		params.Set("users[0][city]", u.City)
	}
	if err := svc.call(ctx, svc.httpClient, "core_user_update_users", params, nil); err != nil {
		return err
	}
	if err := svc.disableNotifications(ctx, u.ID); err != nil && svc.log != nil {
		svc.log.Warn("moodle: could not disable notifications", "user", u.Username, "err", err)
	}
	return nil
}

func (svc *Service) disableNotifications(ctx context.Context, userID int) error {
	params := url.Values{
		"preferences[0][userid]": {strconv.Itoa(userID)},
		"preferences[0][name]":   {"emailstop"},
		"preferences[0][value]":  {"1"},
	}
	return svc.call(ctx, svc.httpClient, "core_user_update_user_preferences", params, nil)
}

// Enroll adds the user to the course as a student. Moodle answers a
// successful manual enrollment with a null body.
func (svc *Service) Enroll(ctx context.Context, userID, courseID int) error {
	params := url.Values{
		"enrolments[0][roleid]":   {strconv.Itoa(studentRoleID)},
		"enrolments[0][userid]":   {strconv.Itoa(userID)},
		"enrolments[0][courseid]": {strconv.Itoa(courseID)},
	}
	return svc.call(ctx, svc.httpClient, "enrol_manual_enrol_users", params, nil)
}
