package types

// Submission acknowledgement statuses.
const (
	AckAccepted  = "accepted"
	AckDuplicate = "duplicate"
)

// Ack acknowledges a submission.
type Ack struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
	Duplicate    bool   `json:"duplicate"`
}
