package domain

import "time"

type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Next returns the due date following d for this frequency.
func (f Frequency) Next(d time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return d.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return d.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return d.AddDate(0, 1, 0)
	case FrequencyYearly:
		return d.AddDate(1, 0, 0)
	}
	return d
}

// MaxStandingOrdersPerSender caps the active push mandates one account may hold.
const MaxStandingOrdersPerSender = 20

// StandingOrder is a holder-created push mandate: a recurring transfer with a
// fixed shape, executed by the scheduler when due.
type StandingOrder struct {
	ID          int64
	Frequency   Frequency
	NextDate    time.Time
	SenderID    int64
	ReceiverID  int64
	Amount      int64
	Metadata    TransferMetadata
	LastDebitID *int64
	CreatedAt   time.Time
}

// DirectDebit is a merchant-initiated pull mandate. The holder may only
// toggle Active; execution fields belong to the engine.
type DirectDebit struct {
	ID          int64
	Active      bool
	NextDate    time.Time
	SenderID    int64
	ReceiverID  int64
	Amount      int64
	LastDebitID *int64
	CreatedAt   time.Time
}
