package domain

import "time"

type JobStatus string

const (
	JobStatusAwarded    JobStatus = "awarded"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
)

// InvoiceData is the structured invoice payload attached to a job.
type InvoiceData map[string]any

type Job struct {
	ID                string
	ConsignmentID     string
	ConsignmentTitle  string
	CompanyID         string
	CompanyName       string
	TransporterID     string
	TransporterName   string
	Origin            string
	Destination       string
	Amount            float64
	Deadline          time.Time
	Status            JobStatus
	AwardedDate       time.Time
	CompletedDate     *time.Time
	InvoiceUploaded   bool
	InvoiceData       InvoiceData
	InvoiceUploadedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusAwarded, JobStatusInProgress, JobStatusCompleted:
		return true
	}
	return false
}

// Next returns the only status reachable from s. Completed is terminal.
func (s JobStatus) Next() (JobStatus, bool) {
	switch s {
	case JobStatusAwarded:
		return JobStatusInProgress, true
	case JobStatusInProgress:
		return JobStatusCompleted, true
	}
	return "", false
}

func CanTransition(from, to JobStatus) bool {
	next, ok := from.Next()
	return ok && next == to
}

// JobStatusFromConsignment maps a consignment status onto the job machine.
// An open consignment has no job, so it reports false.
func JobStatusFromConsignment(s ConsignmentStatus) (JobStatus, bool) {
	js := JobStatus(s)
	if !js.Valid() {
		return "", false
	}
	return js, true
}

func (j Job) HasInvoice() bool {
	return j.InvoiceUploaded && j.InvoiceData != nil
}
