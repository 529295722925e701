package domain

import "time"

// Account is the ledger's unit of ownership. Balance is held in the smallest
// currency unit and is mutated exclusively by the transfer engine.
type Account struct {
	ID         int64
	FullName   string
	Birthdate  *time.Time
	AddressID  *int64
	TaxNumber  *string
	IDNumber   *string
	Balance    int64
	UserID     *int64
	CreatedAt  time.Time
}

type Address struct {
	ID         int64
	LineOne    string
	LineTwo    *string
	PostalCode string
	City       string
	District   string
}

// SystemRole names a well-known system account. Roles are resolved into
// stable account ids once at startup, never by display-name lookup per
// request.
type SystemRole string

const (
	RoleWelcomeGrant       SystemRole = "welcome_grant"
	RoleOutboundSuspense   SystemRole = "outbound_suspense"
	RoleInboundSuspense    SystemRole = "inbound_suspense"
	RoleServicePayments    SystemRole = "service_payments"
	RoleGovernmentPayments SystemRole = "government_payments"
)

// SystemAccounts holds the resolved ids of the role-tagged accounts.
type SystemAccounts struct {
	WelcomeGrant       int64
	OutboundSuspense   int64
	InboundSuspense    int64
	ServicePayments    int64
	GovernmentPayments int64
}

// TelcoProvider is a named payee bound to a system-owned account.
type TelcoProvider struct {
	ID        int64
	Name      string
	AccountID int64
}
