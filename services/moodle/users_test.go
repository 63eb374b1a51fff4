package moodle

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func registerUsers(double *moodleDouble, byUsername, byEmail map[string]User) {
	double.on("core_user_get_users", func(params url.Values) (interface{}, error) {
		key := params.Get("criteria[0][key]")
		value := params.Get("criteria[0][value]")
		var index map[string]User
		switch key {
		case "username":
			index = byUsername
		case "email":
			index = byEmail
		}
		if u, ok := index[value]; ok {
			return map[string]interface{}{"users": []User{u}}, nil
		}
		return map[string]interface{}{"users": []User{}}, nil
	})
}

func TestCreateOrUpdateUserCreatesWhenUnknown(t *testing.T) {
	double := newMoodleDouble(t)
	registerUsers(double, nil, nil)
	double.on("core_user_create_users", func(url.Values) (interface{}, error) {
		return []map[string]interface{}{{"id": 42}}, nil
	})
	double.on("core_user_update_user_preferences", func(url.Values) (interface{}, error) {
		return nil, nil
	})

	created, err := double.service().CreateOrUpdateUser(context.Background(), User{
		Username:  "1037612345",
		FirstName: "Laura",
		LastName:  "Gomez",
		Email:     "laura@example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, created.ID)
	assert.NotEmpty(t, created.Password, "a password is generated for new accounts")

	call := double.lastCall("core_user_create_users")
	assert.Equal(t, "1037612345", call.Get("users[0][username]"))
	assert.Equal(t, created.Password, call.Get("users[0][password]"))

	prefs := double.lastCall("core_user_update_user_preferences")
	assert.Equal(t, "42", prefs.Get("preferences[0][userid]"))
	assert.Equal(t, "emailstop", prefs.Get("preferences[0][name]"))
	assert.Equal(t, "1", prefs.Get("preferences[0][value]"))
}

func TestCreateOrUpdateUserUpdatesExisting(t *testing.T) {
	double := newMoodleDouble(t)
	registerUsers(double,
		map[string]User{"1037612345": {ID: 17, Username: "1037612345", Email: "old@example.com"}},
		nil,
	)
	double.on("core_user_update_users", func(url.Values) (interface{}, error) { return nil, nil })
	double.on("core_user_update_user_preferences", func(url.Values) (interface{}, error) { return nil, nil })

	updated, err := double.service().CreateOrUpdateUser(context.Background(), User{
		Username:  "1037612345",
		FirstName: "Laura",
		LastName:  "Gomez",
		Email:     "laura@example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, 17, updated.ID)
	assert.Empty(t, updated.Password, "existing accounts keep their password")

	call := double.lastCall("core_user_update_users")
	assert.Equal(t, "17", call.Get("users[0][id]"))
	assert.Equal(t, "laura@example.com", call.Get("users[0][email]"))
	assert.Equal(t, 1, double.callCount("core_user_update_user_preferences"), "opt-out is reapplied on update")
}

func TestCreateOrUpdateUserRejectsEmailOfAnotherAccount(t *testing.T) {
	double := newMoodleDouble(t)
	registerUsers(double,
		nil,
		map[string]User{"laura@example.com": {ID: 99, Username: "otheruser", Email: "laura@example.com"}},
	)

	_, err := double.service().CreateOrUpdateUser(context.Background(), User{
		Username: "1037612345",
		Email:    "laura@example.com",
	})
	assert.Equal(t, ErrEmailConflict, err)
	assert.Equal(t, 0, double.callCount("core_user_create_users"), "neither account may be touched")
	assert.Equal(t, 0, double.callCount("core_user_update_users"))
}

func TestCreateOrUpdateUserRejectsEmailConflictOnUpdate(t *testing.T) {
	double := newMoodleDouble(t)
	registerUsers(double,
		map[string]User{"1037612345": {ID: 17, Username: "1037612345", Email: "old@example.com"}},
		map[string]User{"laura@example.com": {ID: 99, Username: "otheruser", Email: "laura@example.com"}},
	)

	_, err := double.service().CreateOrUpdateUser(context.Background(), User{
		Username: "1037612345",
		Email:    "laura@example.com",
	})
	assert.Equal(t, ErrEmailConflict, err)
	assert.Equal(t, 0, double.callCount("core_user_update_users"), "the existing account must keep its email")
	assert.Equal(t, 0, double.callCount("core_user_create_users"))
}

func TestCreateOrUpdateUserAllowsOwnEmailOnUpdate(t *testing.T) {
	double := newMoodleDouble(t)
	registerUsers(double,
		map[string]User{"1037612345": {ID: 17, Username: "1037612345", Email: "laura@example.com"}},
		map[string]User{"laura@example.com": {ID: 17, Username: "1037612345", Email: "laura@example.com"}},
	)
	double.on("core_user_update_users", func(url.Values) (interface{}, error) { return nil, nil })
	double.on("core_user_update_user_preferences", func(url.Values) (interface{}, error) { return nil, nil })

	updated, err := double.service().CreateOrUpdateUser(context.Background(), User{
		Username: "1037612345",
		Email:    "laura@example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, 17, updated.ID)
	assert.Equal(t, 1, double.callCount("core_user_update_users"))
}

func TestEnrollSendsStudentRole(t *testing.T) {
	double := newMoodleDouble(t)
	double.on("enrol_manual_enrol_users", func(url.Values) (interface{}, error) {
		// Moodle answers a successful enrollment with null
		return nil, nil
	})

	err := double.service().Enroll(context.Background(), 42, 7)
	assert.NoError(t, err)

	call := double.lastCall("enrol_manual_enrol_users")
	assert.Equal(t, "5", call.Get("enrolments[0][roleid]"))
	assert.Equal(t, "42", call.Get("enrolments[0][userid]"))
	assert.Equal(t, "7", call.Get("enrolments[0][courseid]"))
}

func TestGeneratePasswordMeetsPolicy(t *testing.T) {
	for i := 0; i < 20; i++ {
		pw := GeneratePassword()
		assert.GreaterOrEqual(t, len(pw), 8)
		assert.True(t, strings.ContainsAny(pw, lowerChars), "needs a lower case letter: %q", pw)
		assert.True(t, strings.ContainsAny(pw, upperChars), "needs an upper case letter: %q", pw)
		assert.True(t, strings.ContainsAny(pw, digitChars), "needs a digit: %q", pw)
		assert.True(t, strings.ContainsAny(pw, specialChars), "needs one of *-#: %q", pw)
	}
}
