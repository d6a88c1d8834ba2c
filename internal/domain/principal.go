package domain

// RoleUser is the single role granted to every authenticated caller.
const RoleUser = "ROLE_USER"

// DefaultRoles returns a fresh copy of the role set assigned on login.
func DefaultRoles() []string {
	return []string{RoleUser}
}

// PrincipalOrigin records how a principal was established.
type PrincipalOrigin string

const (
	OriginCredentials PrincipalOrigin = "credentials"
	OriginFederated   PrincipalOrigin = "federated"
	OriginToken       PrincipalOrigin = "token"
)

// Principal is the resolved identity of the caller for one request.
type Principal struct {
	ID          int64
	DisplayName string
	Email       string
	Roles       []string
	Origin      PrincipalOrigin
}

// PrincipalFromUser builds a principal carrying the default role set.
func PrincipalFromUser(user *User, origin PrincipalOrigin) Principal {
	return Principal{
		ID:          user.ID,
		DisplayName: user.Name,
		Email:       user.Email,
		Roles:       DefaultRoles(),
		Origin:      origin,
	}
}

