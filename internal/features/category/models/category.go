package models

import "time"

// Category is a named content bucket backed by a Telegram channel.
type Category struct {
	Name      string    `json:"name"`
	ChannelID string    `json:"channel_id"`
	CreatedAt time.Time `json:"created_at"`
}
