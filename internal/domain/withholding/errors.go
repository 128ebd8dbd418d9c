package withholding

import "github.com/notaria/backend/internal/domain/shared"

// Reconciliation error codes
const (
	CodeCertificateMismatch      = "CERTIFICATE_MISMATCH"
	CodeCertificateNotAuthorized = "CERTIFICATE_NOT_AUTHORIZED"
	CodeNoRetentionFound         = "NO_RETENTION_FOUND"
	CodeDuplicateCertificate     = "DUPLICATE_CERTIFICATE"
)

var (
	ErrCertificateMismatch      = shared.NewDomainError(CodeCertificateMismatch, "Certificate does not target this invoice")
	ErrCertificateNotAuthorized = shared.NewDomainError(CodeCertificateNotAuthorized, "Certificate is not authorized")
	ErrNoRetentionFound         = shared.NewDomainError(CodeNoRetentionFound, "Certificate carries no retained amount")
	ErrDuplicateCertificate     = shared.NewDomainError(CodeDuplicateCertificate, "Certificate has already been applied")
)
