package domain

import "time"

// UserProfile represents a user's stored profile record
type UserProfile struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	DisplayName string    `json:"displayName"`
	Village     string    `json:"village"`
	PhotoURL    string    `json:"photoUrl"`
	IsPremium   bool      `json:"isPremium"`
	DateCreated time.Time `json:"dateCreated"`
}

// ProfileUpdate carries a partial profile update. Nil fields are left
// unchanged in the stored record (merge semantics).
type ProfileUpdate struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Village     *string `json:"village"`
	DisplayName *string `json:"displayName"`
}

// Empty reports whether the update carries no fields at all
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Village == nil && u.DisplayName == nil
}
