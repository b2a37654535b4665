package models

// Identity is who is making a request. The zero value is an anonymous guest.
type Identity struct {
	User *User
}

// Anonymous is the identity of a visitor without a valid session.
var Anonymous = Identity{}

// IdentityOf returns the identity of an authenticated user.
func IdentityOf(user *User) Identity {
	return Identity{User: user}
}

func (i Identity) IsAuthenticated() bool {
	return i.User != nil
}

func (i Identity) IsAdmin() bool {
	return i.User.IsAdmin()
}

// Role is empty for guests.
func (i Identity) Role() Role {
	if i.User == nil {
		return ""
	}
	return i.User.Role
}

func (i Identity) UserID() int64 {
	if i.User == nil {
		return 0
	}
	return i.User.ID
}
