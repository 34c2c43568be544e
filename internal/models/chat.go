package models

import "time"

type Chat struct {
	ID        int       `json:"id"`
	User1ID   int       `json:"user1_id"`
	User2ID   int       `json:"user2_id"`
	User1     Profile   `json:"user1,omitempty"`
	User2     Profile   `json:"user2,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
