package model

import "time"

// Answer is what a single query traversal hands back to the caller.
// BranchFailed is set when the responder branch produced no content of its own and the
// answer was synthesized from the failure description instead.
type Answer struct {
	RequestID    string        `json:"requestId"`
	Query        string        `json:"query"`
	Route        Route         `json:"route"`
	Text         string        `json:"answer"`
	BranchFailed bool          `json:"branchFailed"`
	Duration     time.Duration `json:"-"`
}
