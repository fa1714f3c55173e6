package gate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pilex/internal/models"
)

type fakeStorage struct {
	integrityOK  bool
	integrityErr error
	repairErr    error

	checkCalls  int
	repairCalls int
}

func (f *fakeStorage) CheckUserTableIntegrity(context.Context) (bool, error) {
	f.checkCalls++
	return f.integrityOK, f.integrityErr
}

func (f *fakeStorage) RepairTables(context.Context) ([]string, error) {
	f.repairCalls++
	return nil, f.repairErr
}

type fakeUsers struct {
	users []models.User
	err   error
	calls int
}

func (f *fakeUsers) GetUsers(context.Context) ([]models.User, error) {
	f.calls++
	return f.users, f.err
}

var oneUser = []models.User{{ID: 1, Username: "admin", UserLevel: models.LevelDeveloper, Enabled: true}}

var paths = []string{
	"/pilex",
	"/pilex/users/edit",
	"/pilex/users/edit/",
	"/pilex/users/edit/3",
	"/pilex/users",
	"/pilex/overview/pages",
	"/pilex/dbupdate",
}

func TestCheck_AuthenticatedAlwaysAllowed(t *testing.T) {
	for _, healthy := range []bool{true, false} {
		for _, users := range [][]models.User{nil, oneUser} {
			for _, path := range paths {
				name := fmt.Sprintf("healthy=%v/users=%d%s", healthy, len(users), path)
				t.Run(name, func(t *testing.T) {
					storage := &fakeStorage{integrityOK: healthy}
					lister := &fakeUsers{users: users}
					g := New(storage, lister, DefaultPaths())

					d, err := g.Check(context.Background(), true, path)
					require.NoError(t, err)
					assert.Equal(t, Decision{Outcome: Allow}, d)
					assert.Zero(t, storage.checkCalls)
					assert.Zero(t, storage.repairCalls)
					assert.Zero(t, lister.calls)
				})
			}
		}
	}
}

func TestCheck_BootstrapExceptionOnlyForBootstrapPath(t *testing.T) {
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			storage := &fakeStorage{integrityOK: true}
			g := New(storage, &fakeUsers{}, DefaultPaths())

			d, err := g.Check(context.Background(), false, path)
			require.NoError(t, err)

			if path == "/pilex/users/edit" || path == "/pilex/users/edit/" {
				assert.Equal(t, AllowBootstrap, d.Outcome)
				assert.True(t, d.Allowed())
				assert.Empty(t, d.Redirect)
				assert.Nil(t, d.Flash)
				assert.Zero(t, storage.repairCalls)
				return
			}
			assert.Equal(t, RepairRedirect, d.Outcome)
			assert.False(t, d.Allowed())
		})
	}
}

func TestCheck_UnhealthyOrEmptyRepairs(t *testing.T) {
	cases := []struct {
		name    string
		healthy bool
		users   []models.User
	}{
		{"broken table", false, nil},
		{"broken table with users", false, oneUser},
		{"no users", true, nil},
	}

	for _, tc := range cases {
		for _, path := range paths {
			if tc.healthy && (path == "/pilex/users/edit" || path == "/pilex/users/edit/") {
				continue
			}
			t.Run(tc.name+path, func(t *testing.T) {
				storage := &fakeStorage{integrityOK: tc.healthy}
				g := New(storage, &fakeUsers{users: tc.users}, DefaultPaths())

				d, err := g.Check(context.Background(), false, path)
				require.NoError(t, err)
				assert.Equal(t, RepairRedirect, d.Outcome)
				assert.Equal(t, "/pilex/users/edit", d.Redirect)
				require.NotNil(t, d.Flash)
				assert.Equal(t, models.Info(NoUsersMessage), *d.Flash)
				assert.Equal(t, 1, storage.repairCalls)
			})
		}
	}
}

func TestCheck_BrokenTableSkipsUserQuery(t *testing.T) {
	storage := &fakeStorage{integrityOK: false}
	lister := &fakeUsers{users: oneUser}
	g := New(storage, lister, DefaultPaths())

	// even the bootstrap path is not exempt while the table is broken
	d, err := g.Check(context.Background(), false, "/pilex/users/edit")
	require.NoError(t, err)
	assert.Equal(t, RepairRedirect, d.Outcome)
	assert.Zero(t, lister.calls)
}

func TestCheck_LoginRedirect(t *testing.T) {
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			storage := &fakeStorage{integrityOK: true}
			g := New(storage, &fakeUsers{users: oneUser}, DefaultPaths())

			d, err := g.Check(context.Background(), false, path)
			require.NoError(t, err)
			assert.Equal(t, LoginRedirect, d.Outcome)
			assert.Equal(t, "/pilex/login", d.Redirect)
			require.NotNil(t, d.Flash)
			assert.Equal(t, models.Info(LoginMessage), *d.Flash)
			assert.Zero(t, storage.repairCalls)
		})
	}
}

func TestCheck_Scenarios(t *testing.T) {
	t.Run("empty session, no users, bootstrap path", func(t *testing.T) {
		storage := &fakeStorage{integrityOK: true}
		d, err := New(storage, &fakeUsers{}, DefaultPaths()).Check(context.Background(), false, "/pilex/users/edit/")
		require.NoError(t, err)
		assert.Equal(t, AllowBootstrap, d.Outcome)
		assert.Empty(t, d.Redirect)
	})

	t.Run("empty session, no users, dashboard", func(t *testing.T) {
		storage := &fakeStorage{integrityOK: true}
		d, err := New(storage, &fakeUsers{}, DefaultPaths()).Check(context.Background(), false, "/pilex")
		require.NoError(t, err)
		assert.Equal(t, "/pilex/users/edit", d.Redirect)
		require.NotNil(t, d.Flash)
		assert.Equal(t, NoUsersMessage, d.Flash.Text)
		assert.Equal(t, 1, storage.repairCalls)
	})

	t.Run("logged in, no users, overview", func(t *testing.T) {
		storage := &fakeStorage{integrityOK: true}
		lister := &fakeUsers{}
		d, err := New(storage, lister, DefaultPaths()).Check(context.Background(), true, "/pilex/overview/pages")
		require.NoError(t, err)
		assert.Equal(t, Allow, d.Outcome)
		assert.Zero(t, lister.calls)
	})
}

func TestCheck_ErrorsPropagate(t *testing.T) {
	boom := errors.New("database is locked")

	t.Run("integrity", func(t *testing.T) {
		storage := &fakeStorage{integrityErr: boom}
		_, err := New(storage, &fakeUsers{}, DefaultPaths()).Check(context.Background(), false, "/pilex")
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, storage.repairCalls)
	})

	t.Run("users", func(t *testing.T) {
		storage := &fakeStorage{integrityOK: true}
		lister := &fakeUsers{err: boom}
		_, err := New(storage, lister, DefaultPaths()).Check(context.Background(), false, "/pilex")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, lister.calls)
	})

	t.Run("repair", func(t *testing.T) {
		storage := &fakeStorage{integrityOK: false, repairErr: boom}
		_, err := New(storage, &fakeUsers{}, DefaultPaths()).Check(context.Background(), false, "/pilex")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, storage.repairCalls)
	})
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "allow-bootstrap", AllowBootstrap.String())
	assert.Equal(t, "repair-redirect", RepairRedirect.String())
	assert.Equal(t, "login-redirect", LoginRedirect.String())
}
