package authrpc

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserReply struct {
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginReply struct {
	ID                    int64    `json:"id"`
	Email                 string   `json:"email"`
	Roles                 []string `json:"roles"`
	AccessToken           string   `json:"accessToken"`
	AccessTokenExpiresIn  int64    `json:"accessTokenExpiresIn"`
	RefreshToken          string   `json:"refreshToken"`
	RefreshTokenExpiresIn int64    `json:"refreshTokenExpiresIn"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshReply struct {
	AccessToken          string `json:"accessToken"`
	AccessTokenExpiresIn int64  `json:"accessTokenExpiresIn"`
}

// MeRequest carries nothing; the caller is identified by the access
// token in the request metadata.
type MeRequest struct{}

type PingRequest struct{}

type PingReply struct {
	Status string `json:"status"`
}
