package models

import (
	"database/sql"
	"time"
)

// UserLevel is the privilege level of an admin user. Higher is more privileged.
type UserLevel int

const (
	LevelEditor        UserLevel = 1
	LevelAdministrator UserLevel = 2
	LevelDeveloper     UserLevel = 3
)

// LevelChoice is a selectable user level with its display name.
type LevelChoice struct {
	Level UserLevel
	Name  string
}

// UserLevels returns all levels in ascending order. The last one is the highest.
func UserLevels() []LevelChoice {
	return []LevelChoice{
		{Level: LevelEditor, Name: "Editor"},
		{Level: LevelAdministrator, Name: "Administrator"},
		{Level: LevelDeveloper, Name: "Developer"},
	}
}

// LevelName returns the display name of a level, or "unknown".
func LevelName(level UserLevel) string {
	for _, c := range UserLevels() {
		if c.Level == level {
			return c.Name
		}
	}
	return "unknown"
}

type User struct {
	ID          int64        `json:"id"`
	Username    string       `json:"username"`
	Password    string       `json:"-"` // bcrypt hash
	Email       string       `json:"email"`
	DisplayName string       `json:"displayname"`
	UserLevel   UserLevel    `json:"userlevel"`
	Enabled     bool         `json:"enabled"`
	LastSeen    sql.NullTime `json:"lastseen"`
	LastIP      string       `json:"lastip"`
}

// SessionUser is the authenticated marker kept in the session.
type SessionUser struct {
	ID          int64
	Username    string
	DisplayName string
	UserLevel   UserLevel
}

// SessionUserFrom builds the session marker for a logged in user.
func SessionUserFrom(u *User) SessionUser {
	return SessionUser{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		UserLevel:   u.UserLevel,
	}
}

// LastSeenString formats LastSeen for display, empty when never seen.
func (u User) LastSeenString() string {
	if !u.LastSeen.Valid {
		return ""
	}
	return u.LastSeen.Time.Format(time.DateTime)
}
