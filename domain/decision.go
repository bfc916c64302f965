package domain

import "time"

// Label is the binary output of the classifier.
type Label int

const (
	Rejected Label = 0
	Approved Label = 1
)

func (l Label) Approved() bool { return l == Approved }

func (l Label) String() string {
	if l == Approved {
		return "approved"
	}
	return "rejected"
}

type Decision struct {
	Label       Label         `json:"label"`
	Approved    bool          `json:"approved"`
	Message     string        `json:"message"`
	Features    FeatureRecord `json:"features"`
	Explanation string        `json:"explanation,omitempty"`
	Cached      bool          `json:"cached"`
	DecidedAt   time.Time     `json:"decided_at"`
}

// DecisionRecord is one row of decision history.
type DecisionRecord struct {
	ID          int64          `json:"id"`
	Application RawApplication `json:"application"`
	Features    FeatureRecord  `json:"features"`
	Label       Label          `json:"label"`
	Message     string         `json:"message"`
	Model       string         `json:"model"`
	DecidedAt   time.Time      `json:"decided_at"`
}
