package app

import (
	"context"
	"encoding/json"

	"github.com/jsamuelsen/quote-session/internal/domain"
	"github.com/jsamuelsen/quote-session/internal/ports"
)

// cursorRecord is the persisted navigation state of a session.
type cursorRecord struct {
	Current string   `json:"current,omitempty"`
	History []string `json:"history"`
}

func newCursorRecord(s *domain.Session) cursorRecord {
	snap := s.Snapshot()

	rec := cursorRecord{History: snap.History}
	if snap.Current != nil {
		rec.Current = snap.Current.ID
	}

	return rec
}

// readJSON decodes the value at key into v. found is false when the key is
// absent, in which case v is left untouched.
func readJSON(ctx context.Context, store ports.KeyValueStore, key string, v any) (found bool, err error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, domain.NewPersistenceError("get", key, err)
	}

	if !ok {
		return false, nil
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, domain.NewPersistenceError("decode", key, err)
	}

	return true, nil
}

// writeJSON overwrites key with the JSON encoding of v.
func writeJSON(ctx context.Context, store ports.KeyValueStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return domain.NewPersistenceError("encode", key, err)
	}

	if err := store.Set(ctx, key, string(raw)); err != nil {
		return domain.NewPersistenceError("set", key, err)
	}

	return nil
}
