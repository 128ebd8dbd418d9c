package custody

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/notaria/backend/internal/domain/shared"
)

// MinJustificationLength is the shortest justification accepted for elimination
const MinJustificationLength = 10

// MarkReady moves an IN_PROCESS document to READY_FOR_PICKUP and issues
// a fresh verification code. Retrying after a timeout may issue a different
// code; only the latest one is stored.
func (d *Document) MarkReady(actor Actor, gen CodeGenerator, at time.Time) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if d.status != StatusInProcess {
		return shared.NewInvalidTransitionError(fmt.Sprintf("Cannot mark document ready in %s status", d.status))
	}

	code, err := gen.Generate()
	if err != nil {
		return err
	}
	if !isVerificationCode(code) {
		return fmt.Errorf("verification code generator returned %q, want %d digits", code, VerificationCodeDigits)
	}

	d.status = StatusReadyForPickup
	d.verificationCode = code
	d.readyAt = &at
	d.Touch(at)

	d.AddDomainEvent(NewDocumentReadyEvent(d, actor))

	return nil
}

// Deliver hands the document over. Without a manual override the submitted
// code must equal the stored one exactly.
func (d *Document) Deliver(actor Actor, attempt DeliveryAttempt, at time.Time) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if d.status != StatusReadyForPickup {
		return shared.NewInvalidTransitionError(fmt.Sprintf("Cannot deliver document in %s status", d.status))
	}
	if err := attempt.Validate(); err != nil {
		return err
	}
	if attempt.ManualOverride {
		if !actor.IsElevated() {
			return shared.NewForbiddenError("manual delivery override requires elevated privilege")
		}
	} else if attempt.Code != d.verificationCode {
		return ErrVerificationMismatch
	}

	d.status = StatusDelivered
	d.verificationCode = ""
	d.delivery = &DeliveryRecord{
		ReceiverName:   strings.TrimSpace(attempt.ReceiverName),
		ReceiverID:     strings.TrimSpace(attempt.ReceiverID),
		Relationship:   strings.TrimSpace(attempt.Relationship),
		ManualOverride: attempt.ManualOverride,
		OverrideReason: strings.TrimSpace(attempt.OverrideReason),
		DeliveredBy:    actor.ID,
		DeliveredAt:    at,
	}
	d.Touch(at)

	d.AddDomainEvent(NewDocumentDeliveredEvent(d))

	return nil
}

// Cancel terminates an IN_PROCESS or READY_FOR_PICKUP document
func (d *Document) Cancel(actor Actor, reason string, at time.Time) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if !d.status.CanTransitionTo(StatusCancelled) {
		return shared.NewInvalidTransitionError(fmt.Sprintf("Cannot cancel document in %s status", d.status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewValidationError("cancel reason is required")
	}

	wasReady := d.status == StatusReadyForPickup
	d.status = StatusCancelled
	d.verificationCode = ""
	d.cancellation = &CancellationRecord{
		Reason:      reason,
		CancelledBy: actor.ID,
		CancelledAt: at,
	}
	d.Touch(at)

	d.AddDomainEvent(NewDocumentCancelledEvent(d, wasReady))

	return nil
}

// Eliminate deletes the document logically, or records it as a credit note.
// The full state before the change is preserved on the elimination record.
func (d *Document) Eliminate(actor Actor, reason, justification string, asCreditNote bool, at time.Time) (*EliminationRecord, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if !actor.IsElevated() {
		return nil, shared.NewForbiddenError("eliminating a document requires elevated privilege")
	}

	target := StatusDeleted
	if asCreditNote {
		target = StatusCreditNote
	}
	if !d.status.CanTransitionTo(target) {
		return nil, shared.NewInvalidTransitionError(fmt.Sprintf("Cannot eliminate document in %s status", d.status))
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewValidationError("elimination reason is required")
	}
	justification = strings.TrimSpace(justification)
	if utf8.RuneCountInString(justification) < MinJustificationLength {
		return nil, shared.NewValidationError(fmt.Sprintf("justification must be at least %d characters", MinJustificationLength))
	}

	record := &EliminationRecord{
		Reason:        reason,
		Justification: justification,
		AsCreditNote:  asCreditNote,
		EliminatedBy:  actor.ID,
		EliminatedAt:  at,
		Snapshot:      d.Snapshot(),
	}

	d.status = target
	d.verificationCode = ""
	d.elimination = record
	d.Touch(at)

	d.AddDomainEvent(NewDocumentEliminatedEvent(d, record))

	return record, nil
}
