package models

import "time"

type Collaborator struct {
	ID             string
	CompanyBCE     string
	NationalNumber string
	FirstName      string
	LastName       string
	BirthDate      *time.Time
	Email          string
	Phone          string
	IBAN           string
	StartDate      *time.Time
	Status         string
	CreatedAt      *time.Time
}
