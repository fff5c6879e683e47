package domain

import "time"

type ConsignmentStatus string

const (
	ConsignmentStatusOpen       ConsignmentStatus = "open"
	ConsignmentStatusAwarded    ConsignmentStatus = "awarded"
	ConsignmentStatusInProgress ConsignmentStatus = "in_progress"
	ConsignmentStatusCompleted  ConsignmentStatus = "completed"
)

const (
	DefaultGoodsType   = "other"
	DefaultDescription = "No description provided"
)

type Consignment struct {
	ID              string
	Title           string
	Origin          string
	Destination     string
	GoodsType       string
	Weight          float64
	Deadline        time.Time
	Budget          float64
	Description     string
	Status          ConsignmentStatus
	CompanyID       string
	CompanyName     string
	BidCount        int
	AwardedBidderID *string
	FinalAmount     *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c Consignment) AcceptingBids() bool {
	return c.Status == ConsignmentStatusOpen
}

// IsAwarded reports whether the consignment has left bidding; awardedBidderId
// and finalAmount are set exactly in these states.
func (c Consignment) IsAwarded() bool {
	switch c.Status {
	case ConsignmentStatusAwarded, ConsignmentStatusInProgress, ConsignmentStatusCompleted:
		return true
	}
	return false
}

func (c Consignment) OwnedBy(companyID string) bool {
	return c.CompanyID == companyID
}
