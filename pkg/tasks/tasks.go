// Package tasks defines the messages carried by the Kafka rebuild queue.
package tasks

import "time"

// IndexRebuildTask asks a worker to rebuild the document index from scratch.
type IndexRebuildTask struct {
	TaskID      string    `json:"task_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}
