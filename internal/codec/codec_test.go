package codec

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upbank/core-banking/internal/domain"
)

func TestAccountNumberOf_KnownValues(t *testing.T) {
	tests := []struct {
		id   int64
		want string
	}{
		{0, "PT50009728900000000000010"},
		{1, "PT50009728900000000000107"},
		{7, "PT50009728900000000000786"},
		{42, "PT50009728900000000004278"},
		{123456789, "PT50009728900012345678987"},
		{99999999999, "PT50009728909999999999995"},
	}
	for _, tc := range tests {
		got, err := AccountNumberOf(tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "id %d", tc.id)
	}
}

func TestAccountNumber_RoundTrip(t *testing.T) {
	ids := []int64{0, 1, 2, 9, 10, 96, 97, 98, 1234, 999999, 123456789, 99999999998, 99999999999}
	for i := int64(0); i < 500; i++ {
		ids = append(ids, i*7919%100000000000)
	}

	seen := make(map[string]int64, len(ids))
	for _, id := range ids {
		s, err := AccountNumberOf(id)
		require.NoError(t, err)
		require.Len(t, s, 25)

		back, err := ParseAccountNumber(s)
		require.NoError(t, err, "round trip of %d via %s", id, s)
		assert.Equal(t, id, back)

		if prev, ok := seen[s]; ok {
			require.Equal(t, prev, id, "collision: %d and %d both map to %s", prev, id, s)
		}
		seen[s] = id
	}
}

func TestAccountNumberOf_Overflow(t *testing.T) {
	_, err := AccountNumberOf(100000000000)
	require.ErrorIs(t, err, domain.ErrIdentifierOverflow)

	_, err = AccountNumberOf(-1)
	require.ErrorIs(t, err, domain.ErrIdentifierOverflow)
}

func TestParseAccountNumber_Errors(t *testing.T) {
	valid, err := AccountNumberOf(42)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"too short", valid[:24], domain.ErrInvalidFormat},
		{"too long", valid + "0", domain.ErrInvalidFormat},
		{"letter in digit position", valid[:10] + "X" + valid[11:], domain.ErrInvalidFormat},
		{"non-PT country code", "XX" + valid[2:], domain.ErrInvalidFormat},
		{"empty", "", domain.ErrInvalidFormat},
		{"corrupted control digits", valid[:23] + "00", domain.ErrInvalidChecksum},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAccountNumber(tc.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseAccountNumber_ExternalBank(t *testing.T) {
	// Same structure and a correct NIB control value, different bank/branch
	// digits. The caller routes these to the outbound suspense account.
	body := "12345678" + "00000000042"
	require.Len(t, body, 19)
	control := fmt.Sprintf("%02d", 98-mod97(body+"00"))
	country := fmt.Sprintf("%02d", 98-mod97(body+control+"252900"))
	iban := "PT" + country + body + control

	_, err := ParseAccountNumber(iban)
	require.ErrorIs(t, err, domain.ErrExternalAccount)
}

func TestAccountNumber_ChecksumSensitivity(t *testing.T) {
	s, err := AccountNumberOf(123456789)
	require.NoError(t, err)

	for pos := 2; pos < len(s); pos++ {
		orig := s[pos]
		for d := byte('0'); d <= '9'; d++ {
			if d == orig {
				continue
			}
			mutated := s[:pos] + string(d) + s[pos+1:]
			_, err := ParseAccountNumber(mutated)
			assert.Error(t, err, "mutation at %d (%c -> %c) went undetected", pos, orig, d)
		}
	}
}

func TestCardNumberOf_KnownValues(t *testing.T) {
	tests := []struct {
		id   int64
		want string
	}{
		{0, "4363390000000008"},
		{1, "4363390000000016"},
		{7, "4363390000000073"},
		{42, "4363390000000420"},
		{999999999, "4363399999999997"},
	}
	for _, tc := range tests {
		got, err := CardNumberOf(tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "id %d", tc.id)
	}
}

func TestCardNumberOf_AlwaysLuhnValid(t *testing.T) {
	for i := int64(0); i < 2000; i++ {
		id := i * 524287 % 1000000000
		card, err := CardNumberOf(id)
		require.NoError(t, err)
		require.Len(t, card, 16)
		assert.True(t, ValidateLuhn(card), "card %s for id %d", card, id)
	}
}

func TestCardNumberOf_Overflow(t *testing.T) {
	_, err := CardNumberOf(1000000000)
	require.ErrorIs(t, err, domain.ErrIdentifierOverflow)

	_, err = CardNumberOf(-5)
	require.ErrorIs(t, err, domain.ErrIdentifierOverflow)
}

func TestCardNumber_ChecksumSensitivity(t *testing.T) {
	card, err := CardNumberOf(987654321)
	require.NoError(t, err)

	for pos := range card {
		orig := card[pos]
		for d := byte('0'); d <= '9'; d++ {
			if d == orig {
				continue
			}
			mutated := card[:pos] + string(d) + card[pos+1:]
			assert.False(t, ValidateLuhn(mutated), "mutation at %d went undetected", pos)
		}
	}
}

func TestValidateLuhn(t *testing.T) {
	assert.True(t, ValidateLuhn("79927398713")) // classic reference number
	assert.False(t, ValidateLuhn("79927398710"))
	assert.False(t, ValidateLuhn("7992739871a"))
	assert.False(t, ValidateLuhn(""))
	assert.False(t, ValidateLuhn("0"))
}

func TestValidateTaxNumber(t *testing.T) {
	valid := []string{"123456789", "287024008", "501964843", "999999990", "504426290"}
	for _, nif := range valid {
		assert.True(t, ValidateTaxNumber(nif), nif)
	}

	invalid := []string{"123456780", "111111111", "12345678", "1234567890", "12345678a", ""}
	for _, nif := range invalid {
		assert.False(t, ValidateTaxNumber(nif), nif)
	}
}
