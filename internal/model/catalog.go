package model

import (
	"github.com/google/uuid"
)

// Service is one bookable offering of an establishment.
type Service struct {
	Base
	EstablishmentID uuid.UUID `json:"establishment_id" db:"establishment_id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	Duration        int       `json:"duration" db:"duration"` // in minutes
	Price           float64   `json:"price" db:"price"`
	IsActive        bool      `json:"is_active" db:"is_active"`
}

type CreateServiceRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Duration    int     `json:"duration" binding:"required,gt=0"`
	Price       float64 `json:"price" binding:"required,gt=0"`
}

type UpdateServiceRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Duration    *int     `json:"duration" binding:"omitempty,gt=0"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	IsActive    *bool    `json:"is_active"`
}
