// Package gate decides whether a request may reach a protected handler.
package gate

import (
	"context"
	"strings"

	"pilex/internal/models"
)

const (
	NoUsersMessage = "There are no users in the database. Please create the first user."
	LoginMessage   = "Please log on."
)

// IntegrityChecker inspects and repairs the storage schema.
type IntegrityChecker interface {
	CheckUserTableIntegrity(ctx context.Context) (bool, error)
	RepairTables(ctx context.Context) ([]string, error)
}

type UserLister interface {
	GetUsers(ctx context.Context) ([]models.User, error)
}

type Outcome int

const (
	// Allow lets an authenticated request through.
	Allow Outcome = iota
	// AllowBootstrap lets an anonymous request create the first user.
	AllowBootstrap
	// RepairRedirect repaired the tables and sends the client to the bootstrap path.
	RepairRedirect
	// LoginRedirect sends the client to the login form.
	LoginRedirect
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case AllowBootstrap:
		return "allow-bootstrap"
	case RepairRedirect:
		return "repair-redirect"
	case LoginRedirect:
		return "login-redirect"
	default:
		return "unknown"
	}
}

// Decision is the result of a gate check. Redirect and Flash are only set
// for the redirect outcomes; writing them to the response is up to the caller.
type Decision struct {
	Outcome  Outcome
	Redirect string
	Flash    *models.Flash
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == Allow || d.Outcome == AllowBootstrap
}

type Paths struct {
	Bootstrap string
	Login     string
}

func DefaultPaths() Paths {
	return Paths{
		Bootstrap: "/pilex/users/edit",
		Login:     "/pilex/login",
	}
}

type Gate struct {
	storage IntegrityChecker
	users   UserLister
	paths   Paths
}

func New(storage IntegrityChecker, users UserLister, paths Paths) *Gate {
	return &Gate{storage: storage, users: users, paths: paths}
}

// Check evaluates, in order: an authenticated session; the bootstrap
// exception (healthy user table, no users, bootstrap path); repair when the
// user table is broken or empty; the login redirect. Storage errors are
// returned as is.
func (g *Gate) Check(ctx context.Context, authenticated bool, path string) (Decision, error) {
	if authenticated {
		return Decision{Outcome: Allow}, nil
	}

	ok, err := g.storage.CheckUserTableIntegrity(ctx)
	if err != nil {
		return Decision{}, err
	}

	noUsers := false
	if ok {
		users, err := g.users.GetUsers(ctx)
		if err != nil {
			return Decision{}, err
		}
		noUsers = len(users) == 0

		if noUsers && g.isBootstrap(path) {
			return Decision{Outcome: AllowBootstrap}, nil
		}
	}

	if !ok || noUsers {
		if _, err := g.storage.RepairTables(ctx); err != nil {
			return Decision{}, err
		}
		flash := models.Info(NoUsersMessage)
		return Decision{Outcome: RepairRedirect, Redirect: g.paths.Bootstrap, Flash: &flash}, nil
	}

	flash := models.Info(LoginMessage)
	return Decision{Outcome: LoginRedirect, Redirect: g.paths.Login, Flash: &flash}, nil
}

// isBootstrap matches the bootstrap path with or without a trailing slash.
func (g *Gate) isBootstrap(path string) bool {
	return strings.TrimSuffix(path, "/") == strings.TrimSuffix(g.paths.Bootstrap, "/")
}
