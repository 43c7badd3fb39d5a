package ports

import "github.com/jsamuelsen/quote-session/internal/domain"

// SessionKeys are the durable store keys owned by one user's session.
type SessionKeys struct {
	// Quotes holds the serialized quote collection.
	Quotes string

	// Liked holds the serialized liked-id set.
	Liked string

	// Cursor holds the current quote id and the history stack.
	Cursor string

	// Profile holds the user profile recorded on sign-in.
	Profile string

	// Authored holds the quotes the user wrote.
	Authored string
}

// KeysFor returns the store keys scoped to u.
func KeysFor(u domain.User) SessionKeys {
	k := u.Key()

	return SessionKeys{
		Quotes:   "quotes/" + k,
		Liked:    "liked/" + k,
		Cursor:   "history/" + k,
		Profile:  "user/" + k,
		Authored: "userquotes/" + k,
	}
}
