package model

// FavoriteRef is the compact favorites shape mirrored onto the account record.
type FavoriteRef struct {
	MediaID string `json:"mediaid"`
}

// HistoryRef is the compact watch-history shape mirrored onto the account record.
type HistoryRef struct {
	MediaID  string  `json:"mediaid"`
	Progress float64 `json:"progress"`
}

// ExternalData is the durable mirror of personal-shelf state stored on the
// account record, for providers that support it.
type ExternalData struct {
	History   []HistoryRef  `json:"history,omitempty"`
	Favorites []FavoriteRef `json:"favorites,omitempty"`
}

// Account is the authenticated identity's profile.
type Account struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Country      string        `json:"country"`
	ExternalData *ExternalData `json:"external_data,omitempty"`
}

// AccountUpdate carries the fields a customer-update call may change.
// Nil fields are left untouched by the provider.
type AccountUpdate struct {
	Email        *string       `json:"email,omitempty"`
	FirstName    *string       `json:"first_name,omitempty"`
	LastName     *string       `json:"last_name,omitempty"`
	ExternalData *ExternalData `json:"external_data,omitempty"`
}
