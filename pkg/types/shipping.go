package types

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// ShippingInfo is the delivery contact and address snapshot recorded on an
// order at creation time.
type ShippingInfo struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// IsComplete reports whether every required field carries a value.
func (s ShippingInfo) IsComplete() bool {
	required := []string{s.FullName, s.Phone, s.Line1, s.City, s.State, s.PostalCode, s.Country}
	for _, field := range required {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}

// Value serializes the shipping info to JSON.
func (s *ShippingInfo) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan decodes JSONB into the shipping info struct.
func (s *ShippingInfo) Scan(value interface{}) error {
	if value == nil {
		*s = ShippingInfo{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, s)
}
