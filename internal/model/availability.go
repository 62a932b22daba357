package model

import (
	"github.com/google/uuid"
)

// AvailableHour is one weekly availability window of an establishment.
// Day is 0-6 where 0 is Sunday; times are "HH:MM" in the establishment's
// local time; Interval is the gap between bookable slots in minutes.
type AvailableHour struct {
	Base
	EstablishmentID uuid.UUID `json:"establishment_id" db:"establishment_id"`
	Day             int       `json:"day" db:"day"`
	StartTime       string    `json:"start_time" db:"start_time"`
	EndTime         string    `json:"end_time" db:"end_time"`
	Interval        int       `json:"interval" db:"interval"`
}

type CreateAvailableHourRequest struct {
	Day       int    `json:"day" binding:"min=0,max=6"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Interval  int    `json:"interval" binding:"required,gt=0"`
}
