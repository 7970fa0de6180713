package auth

// Role determines which role view renders for an authenticated user. It is
// immutable post-registration in this client.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleCustomer:
		return true
	default:
		return false
	}
}

// User is the domain representation of a platform user. It carries no JSON
// annotations so it can be reused by different presentation layers; wire
// mapping lives in the transport.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Role      Role
}

// FullName joins the first and last name for display.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RegisterRequest contains registration data supplied by the user, including
// the confirmation password checked client-side before dispatch.
type RegisterRequest struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// LoginResult bundles the bearer token and domain user returned after a
// successful login.
type LoginResult struct {
	Token string
	User  User
}
