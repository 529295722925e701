// Package validate holds the pure field validators consumed by account
// provisioning and the transfer classifier.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/upbank/core-banking/internal/codec"
	"github.com/upbank/core-banking/internal/domain"
)

const adultAge = 18

// PostalCode accepts the national DDDD-DDD shape.
func PostalCode(s string) error {
	parts := strings.Split(s, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 3 {
		return fmt.Errorf("PostalCode(%q): %w", s, domain.ErrInvalidPostalCode)
	}
	if !digits(parts[0]) || !digits(parts[1]) {
		return fmt.Errorf("PostalCode(%q): %w", s, domain.ErrInvalidPostalCode)
	}
	return nil
}

// Birthdate enforces the age floor: the holder must be 18 on the day the
// account is opened.
func Birthdate(birthdate *time.Time, now time.Time) error {
	if birthdate == nil {
		return fmt.Errorf("Birthdate: %w", domain.ErrUnderage)
	}
	if birthdate.After(now.AddDate(-adultAge, 0, 0)) {
		return fmt.Errorf("Birthdate: %w", domain.ErrUnderage)
	}
	return nil
}

func TaxNumber(s string) error {
	if !codec.ValidateTaxNumber(s) {
		return fmt.Errorf("TaxNumber(%q): %w", s, domain.ErrInvalidTaxNumber)
	}
	return nil
}

// FullName rejects underscores, which are not legal in display names.
func FullName(s string) error {
	if strings.Contains(s, "_") {
		return fmt.Errorf("FullName: %w", domain.ErrIllegalCharacter)
	}
	return nil
}

// PhoneNumber accepts national mobile numbers: nine digits, leading 9,
// second digit one of 1, 2, 3, 5, 6.
func PhoneNumber(s string) error {
	if len(s) != 9 || !digits(s) {
		return fmt.Errorf("PhoneNumber(%q): %w", s, domain.ErrInvalidPhoneNumber)
	}
	if s[0] != '9' {
		return fmt.Errorf("PhoneNumber(%q): %w", s, domain.ErrInvalidPhoneNumber)
	}
	switch s[1] {
	case '1', '2', '3', '5', '6':
		return nil
	}
	return fmt.Errorf("PhoneNumber(%q): %w", s, domain.ErrInvalidPhoneNumber)
}

// EntityCode is the five-digit payee code of a service payment.
func EntityCode(s string) error {
	if len(s) != 5 || !digits(s) {
		return fmt.Errorf("EntityCode(%q): %w", s, domain.ErrInvalidEntity)
	}
	return nil
}

// ServiceReference is the nine-digit reference of a service payment.
func ServiceReference(s string) error {
	if len(s) != 9 || !digits(s) {
		return fmt.Errorf("ServiceReference(%q): %w", s, domain.ErrInvalidReference)
	}
	return nil
}

// GovernmentReference is the fifteen-digit reference of a state payment.
func GovernmentReference(s string) error {
	if len(s) != 15 || !digits(s) {
		return fmt.Errorf("GovernmentReference(%q): %w", s, domain.ErrInvalidReference)
	}
	return nil
}

func digits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
