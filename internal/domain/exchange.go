package domain

// Exchange is the audit record of one forwarded request.
type Exchange struct {
	PK            string
	SK            string
	RequestID     string
	Content       string
	BackendStatus int
	Reply         string
	Outcome       string
	TTL           int64
}

const (
	OutcomeForwarded = "forwarded"
	OutcomeFailed    = "failed"
)
