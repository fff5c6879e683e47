package domain

import "time"

type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAwarded  BidStatus = "awarded"
	BidStatusRejected BidStatus = "rejected"
)

type Bid struct {
	ID                string
	ConsignmentID     string
	ConsignmentTitle  string
	BidderID          string
	BidderName        string
	BidderCompany     string
	BidAmount         float64
	EstimatedDelivery time.Time
	Notes             string
	Status            BidStatus
	CreatedAt         time.Time
	AwardedAt         *time.Time
	UpdatedAt         *time.Time
}

// IsTerminal is true once the bid has left pending; it never returns.
func (b Bid) IsTerminal() bool {
	return b.Status != BidStatusPending
}
