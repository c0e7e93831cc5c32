package model

import "time"

type CreateItemRequest struct {
	Name       string   `json:"name" validate:"required,min=1,max=100"`
	SharedWith []string `json:"shared_with,omitempty" validate:"omitempty,max=50,dive,required,email"`
}

type RenameItemRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type ShareRequest struct {
	Identity string `json:"identity" validate:"required,email"`
}

// ImmediateReservationRequest holds the item from now on. Until is optional;
// without it the hold lasts until relinquished.
type ImmediateReservationRequest struct {
	Until *time.Time `json:"until,omitempty" validate:"omitempty"`
}

type ScheduledReservationRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}
