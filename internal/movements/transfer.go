package movements

import (
	"strings"
	"time"
)

// Receive marks the transfer as arrived at the destination. Resolved
// transfers are terminal and admit no further transition.
func (t *TransferData) Receive(by string, at time.Time, actualDelivery *time.Time) error {
	if by == "" {
		return ErrMissingIdentity
	}
	if !t.Status.CanReceive() {
		return ErrInvalidStateTransition
	}
	t.Status = TransferReceived
	t.ReceivedBy = &by
	t.ReceivedAt = &at
	t.ActualDeliveryDate = actualDelivery
	return nil
}

// Reject refuses the transfer, recording who rejected it and why.
func (t *TransferData) Reject(by, reason string, at time.Time) error {
	if by == "" {
		return ErrMissingIdentity
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrRejectionReason
	}
	if !t.Status.CanReject() {
		return ErrInvalidStateTransition
	}
	t.Status = TransferRejected
	t.RejectedBy = &by
	t.RejectedAt = &at
	t.RejectionReason = &reason
	return nil
}
