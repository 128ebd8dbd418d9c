package custody

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/notaria/backend/internal/domain/shared"
)

// VerificationCodeDigits is the length of a delivery verification code
const VerificationCodeDigits = 4

// CodeGenerator produces delivery verification codes
type CodeGenerator interface {
	Generate() (string, error)
}

// CodeGeneratorFunc adapts a function to CodeGenerator
type CodeGeneratorFunc func() (string, error)

// Generate calls f
func (f CodeGeneratorFunc) Generate() (string, error) {
	return f()
}

// RandomCodeGenerator draws uniformly from 0000-9999. Collisions between
// documents are allowed; a code is only ever compared against its own document.
type RandomCodeGenerator struct{}

// Generate returns a zero-padded 4 digit code
func (RandomCodeGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", VerificationCodeDigits, n.Int64()), nil
}

// isVerificationCode checks the generator output
func isVerificationCode(code string) bool {
	if len(code) != VerificationCodeDigits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DeliveryAttempt is what the front desk submits when handing a document over
type DeliveryAttempt struct {
	ReceiverName   string
	ReceiverID     string
	Relationship   string
	Code           string
	ManualOverride bool
	OverrideReason string
}

// Validate checks the receiver identity is present
func (a DeliveryAttempt) Validate() error {
	if strings.TrimSpace(a.ReceiverName) == "" {
		return shared.NewValidationError("receiver name is required")
	}
	if a.ManualOverride && strings.TrimSpace(a.OverrideReason) == "" {
		return shared.NewValidationError("manual override requires a reason")
	}
	return nil
}

// DeliveryRecord is stored on the document once it has been delivered
type DeliveryRecord struct {
	ReceiverName   string    `json:"receiver_name"`
	ReceiverID     string    `json:"receiver_id,omitempty"`
	Relationship   string    `json:"relationship,omitempty"`
	ManualOverride bool      `json:"manual_override"`
	OverrideReason string    `json:"override_reason,omitempty"`
	DeliveredBy    string    `json:"delivered_by"`
	DeliveredAt    time.Time `json:"delivered_at"`
}
