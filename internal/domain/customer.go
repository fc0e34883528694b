package domain

import "time"

// CustomerAddress stores address fields returned to clients.
type CustomerAddress struct {
	ID       string `json:"id"`
	FullName string `json:"fullName,omitempty"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	ZipCode  string `json:"zipCode,omitempty"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// ShippingAddress converts a saved address into an order shipping address.
func (a CustomerAddress) ShippingAddress() ShippingAddress {
	return ShippingAddress{
		FullName: a.FullName,
		Address:  a.Address,
		City:     a.City,
		State:    a.State,
		ZipCode:  a.ZipCode,
		Country:  a.Country,
		Phone:    a.Phone,
	}
}

// Customer is a registered shopper; IsAdmin grants the privileged order routes.
type Customer struct {
	ID                       string            `json:"id"`
	Email                    string            `json:"email"`
	PasswordHash             string            `json:"-"`
	FirstName                string            `json:"firstName,omitempty"`
	LastName                 string            `json:"lastName,omitempty"`
	IsAdmin                  bool              `json:"isAdmin"`
	Addresses                []CustomerAddress `json:"addresses,omitempty"`
	DefaultShippingAddressID string            `json:"defaultShippingAddressId,omitempty"`
	CreatedAt                time.Time         `json:"createdAt"`
}

// DefaultShippingAddress returns the address marked as default, if any.
func (c Customer) DefaultShippingAddress() (CustomerAddress, bool) {
	for _, a := range c.Addresses {
		if a.ID == c.DefaultShippingAddressID {
			return a, true
		}
	}
	return CustomerAddress{}, false
}
