package model

import "time"

// Customer represents the authenticated customer's profile.
type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FullName returns the customer's display name.
func (c Customer) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Session represents the (token, customer) pair for the current process.
// Token and Customer are both present or both absent; dependent views never
// observe a partially authenticated session.
type Session struct {
	Token    string    `json:"token,omitempty"`
	Customer *Customer `json:"customer,omitempty"`
}

// Authenticated reports whether the session carries a usable identity.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.Customer != nil
}
