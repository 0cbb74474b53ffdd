// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

import "time"

// VerificationEmailQueue is the durable queue carrying registration mail.
const VerificationEmailQueue = "email.verification"

// VerificationEmailEvent asks the mail worker to send one verification email.
// RequestedAt is informational and shows up in worker logs.
type VerificationEmailEvent struct {
	AccountID   string    `json:"account_id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	Token       string    `json:"token"`
	RequestedAt time.Time `json:"requested_at"`
}
