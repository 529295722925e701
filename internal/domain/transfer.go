package domain

import "time"

type TransferType string

const (
	TransferTypePeer          TransferType = "PEER"
	TransferTypeNational      TransferType = "NATIONAL"
	TransferTypeService       TransferType = "SERVICE"
	TransferTypeGovernment    TransferType = "GOVERNMENT"
	TransferTypeTelco         TransferType = "TELCO"
	TransferTypeStandingOrder TransferType = "STANDING_ORDER"
	TransferTypeDirectDebit   TransferType = "DIRECT_DEBIT"
	TransferTypeWelcome       TransferType = "WELCOME"
)

// TransferMetadata tags a transfer with its subtype and the subtype-specific
// fields. It is stored verbatim on the ledger entry.
type TransferMetadata struct {
	Type        TransferType `json:"type"`
	Number      string       `json:"number,omitempty"`
	Entity      string       `json:"entity,omitempty"`
	Reference   string       `json:"reference,omitempty"`
	PhoneNumber string       `json:"phone_number,omitempty"`
}

// Transfer is an immutable ledger entry. Every balance mutation corresponds
// to exactly one Transfer; rows are never updated or deleted.
type Transfer struct {
	ID         int64
	Date       time.Time
	SenderID   int64
	ReceiverID int64
	Amount     int64
	Metadata   TransferMetadata
	Notes      *string
}
