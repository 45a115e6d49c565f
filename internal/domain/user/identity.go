package user

// Identity is what the core sees of an authenticated caller.
type Identity struct {
	UserID      string
	Username    string
	Roles       []Role
	AgeVerified bool
}

func (i Identity) IsAdmin() bool {
	for _, r := range i.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// CanRead reports whether the caller may read a resource owned by ownerID.
func (i Identity) CanRead(ownerID string) bool {
	return i.IsAdmin() || i.UserID == ownerID
}

func IdentityOf(u *User) Identity {
	return Identity{
		UserID:      u.ID,
		Username:    u.Username,
		Roles:       append([]Role(nil), u.Roles...),
		AgeVerified: u.AgeVerified,
	}
}
