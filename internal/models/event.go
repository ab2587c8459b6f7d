package models

import "time"

// Event is a lifecycle notification delivered to live subscribers
type Event struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}

// EventType builds "{kind}:{verb}" event names
func EventType(kind Kind, verb string) string {
	return string(kind) + ":" + verb
}

// Event verbs
const (
	EventNew     = "new"
	EventUpdate  = "update"
	EventDelete  = "delete"
	EventRestore = "restore"
	EventPurge   = "purge"
	EventPublish = "publish"

	EventTagsRename = "tags:rename"
	EventTagsMerge  = "tags:merge"
)
