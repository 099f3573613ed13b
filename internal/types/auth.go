package types

// User is the account identity returned by the remote datastore.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	FBID     string `json:"fbId,omitempty"`
	Anonymous bool  `json:"anonymous,omitempty"`
}

// Auth binds an opaque capability token to the user it authenticates.
// Key is the sole credential accepted by the remote API (spec.md §3).
type Auth struct {
	Key  string `json:"key"`
	User User   `json:"user"`
}

// AuthRequestKind discriminates the four supported authentication flows.
type AuthRequestKind string

const (
	AuthLogin              AuthRequestKind = "Login"
	AuthLoginWithToken     AuthRequestKind = "LoginWithToken"
	AuthRegister           AuthRequestKind = "Register"
	AuthWithFacebook       AuthRequestKind = "AuthWithFacebook"
)

// AuthRequest is a tagged union over the four ways a session can be
// established. Exactly one of the Kind-specific fields is populated.
type AuthRequest struct {
	Kind AuthRequestKind

	// Login
	Email    string
	Password string

	// LoginWithToken
	Token string

	// Register
	RegisterEmail    string
	RegisterPassword string

	// AuthWithFacebook
	FacebookToken string
}

// Endpoint returns the api.strem.io-style path this request is POSTed to
// (spec.md §4.4, §6).
func (r AuthRequest) Endpoint() string {
	switch r.Kind {
	case AuthLogin:
		return "login"
	case AuthLoginWithToken:
		return "loginWithToken"
	case AuthRegister:
		return "register"
	case AuthWithFacebook:
		return "authWithFacebook"
	default:
		return ""
	}
}

// Payload builds the JSON body fields specific to this auth flow, excluding
// the shared {type, authKey} envelope added by the API client.
func (r AuthRequest) Payload() map[string]any {
	switch r.Kind {
	case AuthLogin:
		return map[string]any{"email": r.Email, "password": r.Password}
	case AuthLoginWithToken:
		return map[string]any{"token": r.Token}
	case AuthRegister:
		return map[string]any{"email": r.RegisterEmail, "password": r.RegisterPassword}
	case AuthWithFacebook:
		return map[string]any{"token": r.FacebookToken}
	default:
		return map[string]any{}
	}
}
