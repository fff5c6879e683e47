package dto

import (
	"time"

	"logiledger/internal/domain"
)

type SubmitBidRequest struct {
	ConsignmentID     string  `json:"consignmentId" validate:"required"`
	BidAmount         float64 `json:"bidAmount" validate:"gt=0"`
	EstimatedDelivery string  `json:"estimatedDelivery" validate:"required"`
	Notes             string  `json:"notes" validate:"omitempty,max=2000"`
}

type BidResponse struct {
	ID                string     `json:"id"`
	ConsignmentID     string     `json:"consignmentId"`
	ConsignmentTitle  string     `json:"consignmentTitle"`
	BidderID          string     `json:"bidderId"`
	BidderName        string     `json:"bidderName"`
	BidderCompany     string     `json:"bidderCompany"`
	BidAmount         float64    `json:"bidAmount"`
	EstimatedDelivery time.Time  `json:"estimatedDelivery"`
	Notes             string     `json:"notes"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
	AwardedAt         *time.Time `json:"awardedAt"`
	UpdatedAt         *time.Time `json:"updatedAt"`
}

type BidListResponse struct {
	Bids  []BidResponse `json:"bids"`
	Count int           `json:"count"`
}

func NewBidResponse(b domain.Bid) BidResponse {
	return BidResponse{
		ID:                b.ID,
		ConsignmentID:     b.ConsignmentID,
		ConsignmentTitle:  b.ConsignmentTitle,
		BidderID:          b.BidderID,
		BidderName:        b.BidderName,
		BidderCompany:     b.BidderCompany,
		BidAmount:         b.BidAmount,
		EstimatedDelivery: b.EstimatedDelivery,
		Notes:             b.Notes,
		Status:            string(b.Status),
		CreatedAt:         b.CreatedAt,
		AwardedAt:         b.AwardedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func NewBidListResponse(bids []domain.Bid) BidListResponse {
	items := make([]BidResponse, len(bids))
	for i, b := range bids {
		items[i] = NewBidResponse(b)
	}
	return BidListResponse{Bids: items, Count: len(items)}
}
