package custody

import "github.com/notaria/backend/internal/domain/shared"

// Lifecycle and ledger error codes
const (
	CodeVerificationMismatch = "VERIFICATION_MISMATCH"
	CodeAlreadySettled       = "ALREADY_SETTLED"
	CodeOverAllocation       = "OVER_ALLOCATION"
	CodeInvalidAmount        = "INVALID_AMOUNT"
)

var (
	ErrVerificationMismatch = shared.NewDomainError(CodeVerificationMismatch, "Verification code does not match")
	ErrAlreadySettled       = shared.NewDomainError(CodeAlreadySettled, "Document is already fully paid")
	ErrOverAllocation       = shared.NewDomainError(CodeOverAllocation, "Amount exceeds the pending balance")
	ErrInvalidAmount        = shared.NewDomainError(CodeInvalidAmount, "Amount must be positive")

	ErrDocumentNotFound     = shared.NewDomainError(shared.CodeNotFound, "Document not found")
	ErrPaymentEventNotFound = shared.NewDomainError(shared.CodeNotFound, "Payment event not found")
)
