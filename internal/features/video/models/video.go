package models

import "time"

// Video is an immutable content item. FileID is the opaque media handle
// passed to the delivery transport.
type Video struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	FileID    string    `json:"file_id"`
	CreatedAt time.Time `json:"created_at"`
}
