package dto

import (
	"time"

	"logiledger/internal/domain"
)

type UpdateJobStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type UploadInvoiceRequest struct {
	InvoiceData map[string]any `json:"invoiceData" validate:"required"`
}

type JobResponse struct {
	ID                string         `json:"id"`
	ConsignmentID     string         `json:"consignmentId"`
	ConsignmentTitle  string         `json:"consignmentTitle"`
	CompanyID         string         `json:"companyId"`
	CompanyName       string         `json:"companyName"`
	TransporterID     string         `json:"transporterId"`
	TransporterName   string         `json:"transporterName"`
	Origin            string         `json:"origin"`
	Destination       string         `json:"destination"`
	Amount            float64        `json:"amount"`
	Deadline          time.Time      `json:"deadline"`
	Status            string         `json:"status"`
	AwardedDate       time.Time      `json:"awardedDate"`
	CompletedDate     *time.Time     `json:"completedDate"`
	InvoiceUploaded   bool           `json:"invoiceUploaded"`
	InvoiceData       map[string]any `json:"invoiceData"`
	InvoiceUploadedAt *time.Time     `json:"invoiceUploadedAt"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         *time.Time     `json:"updatedAt"`
}

type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

func NewJobResponse(j domain.Job) JobResponse {
	return JobResponse{
		ID:                j.ID,
		ConsignmentID:     j.ConsignmentID,
		ConsignmentTitle:  j.ConsignmentTitle,
		CompanyID:         j.CompanyID,
		CompanyName:       j.CompanyName,
		TransporterID:     j.TransporterID,
		TransporterName:   j.TransporterName,
		Origin:            j.Origin,
		Destination:       j.Destination,
		Amount:            j.Amount,
		Deadline:          j.Deadline,
		Status:            string(j.Status),
		AwardedDate:       j.AwardedDate,
		CompletedDate:     j.CompletedDate,
		InvoiceUploaded:   j.InvoiceUploaded,
		InvoiceData:       j.InvoiceData,
		InvoiceUploadedAt: j.InvoiceUploadedAt,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
}

func NewJobListResponse(jobs []domain.Job) JobListResponse {
	items := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		items[i] = NewJobResponse(j)
	}
	return JobListResponse{Jobs: items, Count: len(items)}
}
