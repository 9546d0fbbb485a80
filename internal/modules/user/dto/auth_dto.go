package dto

type RegisterRequest struct {
	Username    string `json:"username" binding:"required,alphanum,min=3,max=50"`
	Password    string `json:"password" binding:"required,min=4,max=64"`
	Gender      string `json:"gender" binding:"required,oneof=male female"`
	KnownAs     string `json:"known_as" binding:"required,max=100"`
	DateOfBirth string `json:"date_of_birth" binding:"required,datetime=2006-01-02"`
	City        string `json:"city" binding:"required,max=100"`
	Country     string `json:"country" binding:"required,max=100"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        MemberResponse `json:"user"`
	Roles       []string       `json:"roles"`
}
