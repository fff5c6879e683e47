package dto

import (
	"time"

	"logiledger/internal/domain"
)

type CreateConsignmentRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Origin      string  `json:"origin" validate:"required,max=255"`
	Destination string  `json:"destination" validate:"required,max=255"`
	GoodsType   string  `json:"goodsType" validate:"omitempty,max=100"`
	Weight      float64 `json:"weight" validate:"gt=0"`
	Deadline    string  `json:"deadline" validate:"required"`
	Budget      float64 `json:"budget" validate:"gt=0"`
	Description string  `json:"description" validate:"omitempty,max=4000"`
}

type ConsignmentResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Origin          string    `json:"origin"`
	Destination     string    `json:"destination"`
	GoodsType       string    `json:"goodsType"`
	Weight          float64   `json:"weight"`
	Deadline        time.Time `json:"deadline"`
	Budget          float64   `json:"budget"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	CompanyID       string    `json:"companyId"`
	CompanyName     string    `json:"companyName"`
	BidCount        int       `json:"bidCount"`
	AwardedBidderID *string   `json:"awardedBidderId"`
	FinalAmount     *float64  `json:"finalAmount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type ConsignmentListResponse struct {
	Consignments []ConsignmentResponse `json:"consignments"`
	Count        int                   `json:"count"`
	Message      string                `json:"message,omitempty"`
}

type LocationSuggestionsResponse struct {
	Locations []string `json:"locations"`
}

type RecountResponse struct {
	ConsignmentID string `json:"consignmentId"`
	BidCount      int    `json:"bidCount"`
}

func NewConsignmentResponse(c domain.Consignment) ConsignmentResponse {
	return ConsignmentResponse{
		ID:              c.ID,
		Title:           c.Title,
		Origin:          c.Origin,
		Destination:     c.Destination,
		GoodsType:       c.GoodsType,
		Weight:          c.Weight,
		Deadline:        c.Deadline,
		Budget:          c.Budget,
		Description:     c.Description,
		Status:          string(c.Status),
		CompanyID:       c.CompanyID,
		CompanyName:     c.CompanyName,
		BidCount:        c.BidCount,
		AwardedBidderID: c.AwardedBidderID,
		FinalAmount:     c.FinalAmount,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func NewConsignmentListResponse(consignments []domain.Consignment) ConsignmentListResponse {
	items := make([]ConsignmentResponse, len(consignments))
	for i, c := range consignments {
		items[i] = NewConsignmentResponse(c)
	}
	return ConsignmentListResponse{Consignments: items, Count: len(items)}
}
