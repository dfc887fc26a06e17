package model

// Roles carried in the credential. Role 0 is a normal user, role 1 is an
// administrator; the authorization guards compare against these values.
const (
	RoleUser  = 0
	RoleAdmin = 1
)

// User is the persisted identity record in the reserved "users" collection.
// The password hash never leaves the server; Public() is the only shape
// handed to clients.
type User struct {
	UID       string `json:"uid" bson:"-"`
	Username  string `json:"username" bson:"username"`
	Password  string `json:"-" bson:"password"`
	Email     string `json:"email,omitempty" bson:"email,omitempty"`
	Role      int    `json:"role" bson:"role"`
	CreatedAt int64  `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64  `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// IsAdmin reports whether the user carries the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Public returns the client-visible view of the user.
func (u *User) Public() map[string]interface{} {
	out := map[string]interface{}{
		"uid":       u.UID,
		"username":  u.Username,
		"role":      u.Role,
		"createdAt": u.CreatedAt,
	}
	if u.Email != "" {
		out["email"] = u.Email
	}
	return out
}
