package models

import "time"

type Company struct {
	ID         string
	BCE        string
	Name       string
	VAT        string
	ONSS       string
	IBAN       string
	Street     string
	PostalCode string
	City       string
	Status     string
	CreatedAt  *time.Time
}
