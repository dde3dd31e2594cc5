package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a package.
type Status string

const (
	StatusInWarehouse Status = "InWarehouse"
	StatusInTransit   Status = "InTransit"
	StatusDelivered   Status = "Delivered"
)

var statusOrdinals = []Status{StatusInWarehouse, StatusInTransit, StatusDelivered}

func (s Status) Valid() bool {
	switch s {
	case StatusInWarehouse, StatusInTransit, StatusDelivered:
		return true
	}
	return false
}

// ParseStatus accepts a status name or its ordinal ("0", "1", "2").
func ParseStatus(raw string) (Status, error) {
	if s := Status(raw); s.Valid() {
		return s, nil
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n < len(statusOrdinals) {
		return statusOrdinals[n], nil
	}
	return "", fmt.Errorf("unknown package status %q", raw)
}

// UnmarshalJSON accepts both the string form and the numeric enum form.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseStatus(name)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("package status must be a string or a number: %w", err)
	}
	parsed, err := ParseStatus(strconv.Itoa(n))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Package is a trackable shipment record.
type Package struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name" validate:"notblank,min=3,max=255"`
	Status         Status     `json:"status"`
	DateOfCreation time.Time  `json:"dateOfCreation"`
	DateOfDelivery *time.Time `json:"dateOfDelivery" validate:"omitempty,future"`
}
