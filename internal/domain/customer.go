package domain

import "time"

type Customer struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	CustomerName   string     `json:"customer_name"`
	Email          string     `json:"email"`
	PhoneNumber    string     `json:"phone_number"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	ProfilePicture string     `json:"profile_picture"`
	IsActive       bool       `json:"-"`
	IsStaff        bool       `json:"-"`
	LastLogin      *time.Time `json:"last_login"`
	PasswordHash   string     `json:"-"`
	CreatedAt      time.Time  `json:"-"`
}

type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}
