package secretstore

import (
	"encoding/json"
	"fmt"
)

const sessionKey = "auth_session"

// Session is the persisted login state. Access tokens routinely exceed the
// backend's per-entry cap, which is why it goes through Sharded.
type Session struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	PushToken   string `json:"push_token,omitempty"`
}

func SaveSession(store *Sharded, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return store.Store(sessionKey, string(data))
}

// LoadSession returns ErrNotFound when no session has been saved.
func LoadSession(store *Sharded) (Session, error) {
	raw, err := store.Load(sessionKey)
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, fmt.Errorf("corrupt session entry: %w", err)
	}
	return s, nil
}

func ClearSession(store *Sharded) error {
	return store.Remove(sessionKey)
}
