package dto

import "time"

type EditRolesRequest struct {
	Roles string `form:"roles" binding:"required"`
}

type UserWithRolesResponse struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	KnownAs    string    `json:"known_as"`
	Gender     string    `json:"gender"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	Roles      []string  `json:"roles"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"last_active"`
}
