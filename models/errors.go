package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingPrice   = errors.New("missing price")
	ErrMalformedPrice = errors.New("malformed price")
	ErrUnorderedDates = errors.New("dates not strictly ascending")
	ErrDuplicateDate  = errors.New("duplicate trade date")
	ErrMissingDate    = errors.New("missing trade date")
	ErrMalformedDate  = errors.New("malformed trade date")
)

// DataError ties a data problem to the observation it was found on.
type DataError struct {
	Date time.Time
	Err  error
}

func (e *DataError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("data error: %v", e.Err)
	}
	return fmt.Sprintf("data error on %s: %v", e.Date.Format("2006-01-02"), e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError wraps err with the date it applies to.
func NewDataError(date time.Time, err error) error {
	return &DataError{Date: date, Err: err}
}
