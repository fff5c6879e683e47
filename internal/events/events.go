// Package events carries lifecycle notifications to whatever relays them
// (bots, mail). Events are plain data; the delivery channel is not known here.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"logiledger/internal/domain"
	"logiledger/internal/dto"
)

type Type string

const (
	TypeBidCreated       Type = "bid.created"
	TypeBidAwarded       Type = "bid.awarded"
	TypeJobStatusChanged Type = "job.status_changed"
	TypeInvoiceUploaded  Type = "job.invoice_uploaded"
)

type Event struct {
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BidCreatedPayload struct {
	Bid dto.BidResponse `json:"bid"`
}

type BidAwardedPayload struct {
	Bid            dto.BidResponse `json:"bid"`
	RejectedBidIDs []string        `json:"rejectedBidIds"`
}

type JobStatusChangedPayload struct {
	Job       dto.JobResponse `json:"job"`
	OldStatus string          `json:"oldStatus"`
	NewStatus string          `json:"newStatus"`
}

type InvoiceUploadedPayload struct {
	Job dto.JobResponse `json:"job"`
}

func BidCreated(bid domain.Bid, at time.Time) Event {
	return Event{
		Type:       TypeBidCreated,
		OccurredAt: at,
		Payload:    BidCreatedPayload{Bid: dto.NewBidResponse(bid)},
	}
}

func BidAwarded(bid domain.Bid, rejectedBidIDs []string, at time.Time) Event {
	if rejectedBidIDs == nil {
		rejectedBidIDs = []string{}
	}
	return Event{
		Type:       TypeBidAwarded,
		OccurredAt: at,
		Payload:    BidAwardedPayload{Bid: dto.NewBidResponse(bid), RejectedBidIDs: rejectedBidIDs},
	}
}

func JobStatusChanged(job domain.Job, oldStatus domain.JobStatus, at time.Time) Event {
	return Event{
		Type:       TypeJobStatusChanged,
		OccurredAt: at,
		Payload: JobStatusChangedPayload{
			Job:       dto.NewJobResponse(job),
			OldStatus: string(oldStatus),
			NewStatus: string(job.Status),
		},
	}
}

func InvoiceUploaded(job domain.Job, at time.Time) Event {
	return Event{
		Type:       TypeInvoiceUploaded,
		OccurredAt: at,
		Payload:    InvoiceUploadedPayload{Job: dto.NewJobResponse(job)},
	}
}

// Emit publishes after the state change is committed. A failed publish is
// logged and never fails the operation that produced the event.
func Emit(ctx context.Context, publisher Publisher, logger *zap.Logger, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error {
	return nil
}
