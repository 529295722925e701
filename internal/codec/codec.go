// Package codec maps internal account ids to externally presented
// identifiers (Portuguese IBAN-style account numbers and Luhn-checked card
// numbers) and validates national check digits. All functions are pure.
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/upbank/core-banking/internal/domain"
)

const (
	countryPrefix = "PT50"
	// Bank and branch digits of every account number this bank issues.
	bankBranch = "00972890"
	issuerBIN  = "436339"

	accountIDWidth = 11
	cardIDWidth    = 9

	accountNumberLen = 25 // PT50 + 8 routing + 11 id + 2 control
)

const (
	maxAccountID = 100_000_000_000 - 1
	maxCardID    = 1_000_000_000 - 1
)

// AccountNumberOf derives the presentable account number for an internal id.
// The two trailing digits are the national NIB control value, computed over
// the 19 routing+account digits as 98 - (N*100 mod 97). With the fixed
// country prefix the full identifier also satisfies the generic IBAN mod-97
// property.
func AccountNumberOf(id int64) (string, error) {
	if id < 0 || id > maxAccountID {
		return "", fmt.Errorf("AccountNumberOf(%d): %w", id, domain.ErrIdentifierOverflow)
	}
	body := bankBranch + pad(id, accountIDWidth)
	return countryPrefix + body + fmt.Sprintf("%02d", nibControl(body)), nil
}

// ParseAccountNumber is the inverse of AccountNumberOf. It reports
// ErrInvalidFormat for structurally malformed input, ErrInvalidChecksum when
// the embedded control digits disagree with the re-derived ones, and
// ErrExternalAccount for a well-formed number issued by another bank.
func ParseAccountNumber(s string) (int64, error) {
	if len(s) != accountNumberLen || !strings.HasPrefix(s, "PT") || !allDigits(s[2:]) {
		return 0, fmt.Errorf("ParseAccountNumber: %w", domain.ErrInvalidFormat)
	}
	if mod97(s[4:]+ibanCountryDigits(s[:2])+s[2:4]) != 1 {
		return 0, fmt.Errorf("ParseAccountNumber: %w", domain.ErrInvalidChecksum)
	}
	if !strings.HasPrefix(s, countryPrefix+bankBranch) {
		return 0, fmt.Errorf("ParseAccountNumber: %w", domain.ErrExternalAccount)
	}

	body := s[4 : 4+len(bankBranch)+accountIDWidth]
	if fmt.Sprintf("%02d", nibControl(body)) != s[accountNumberLen-2:] {
		return 0, fmt.Errorf("ParseAccountNumber: %w", domain.ErrInvalidChecksum)
	}

	id, err := strconv.ParseInt(s[4+len(bankBranch):accountNumberLen-2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ParseAccountNumber: %w", domain.ErrInvalidFormat)
	}
	return id, nil
}

// CardNumberOf derives the 16-digit card number for an internal account id:
// issuer prefix, zero-padded id, one Luhn check digit.
func CardNumberOf(id int64) (string, error) {
	if id < 0 || id > maxCardID {
		return "", fmt.Errorf("CardNumberOf(%d): %w", id, domain.ErrIdentifierOverflow)
	}
	payload := issuerBIN + pad(id, cardIDWidth)
	return payload + strconv.Itoa(luhnDigit(payload)), nil
}

// ValidateLuhn reports whether s is a digit string whose last digit is a
// correct mod-10 check over the rest.
func ValidateLuhn(s string) bool {
	if len(s) < 2 || !allDigits(s) {
		return false
	}
	return luhnDigit(s[:len(s)-1]) == int(s[len(s)-1]-'0')
}

// ValidateTaxNumber checks a 9-digit Portuguese NIF: the first eight digits
// are weighted 9 down to 2, summed mod 11, and remainders 0 and 1 both map
// to a control digit of 0.
func ValidateTaxNumber(nif string) bool {
	if len(nif) != 9 || !allDigits(nif) {
		return false
	}
	sum := 0
	for i := range 8 {
		sum += int(nif[i]-'0') * (9 - i)
	}
	control := 11 - sum%11
	if control > 9 {
		control = 0
	}
	return control == int(nif[8]-'0')
}

// nibControl computes the NIB control value over the 19 bank+branch+account
// digits, digit by digit so arbitrary widths never overflow.
func nibControl(body string) int {
	return 98 - mod97(body+"00")
}

func mod97(s string) int {
	r := 0
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			r = (r*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			// letters map A=10 .. Z=35, two digits each
			v := int(c-'A') + 10
			r = (r*100 + v) % 97
		}
	}
	return r
}

// ibanCountryDigits expands a two-letter country code for the mod-97 pass.
func ibanCountryDigits(cc string) string {
	var b strings.Builder
	for _, c := range cc {
		b.WriteString(strconv.Itoa(int(c-'A') + 10))
	}
	return b.String()
}

func luhnDigit(payload string) int {
	sum := 0
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		double = !double
		sum += d
	}
	return (10 - sum%10) % 10
}

func pad(id int64, width int) string {
	return fmt.Sprintf("%0*d", width, id)
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
