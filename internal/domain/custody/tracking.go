package custody

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"

	"github.com/notaria/backend/internal/domain/shared"
)

const (
	trackingPrefix   = "NOT"
	trackingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	trackingSuffix   = 6
)

var trackingCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{2,63}$`)

// GenerateTrackingCode returns a barcode-friendly code of the form NOT-YYYYMMDD-XXXXXX
// using the date of the calendar policy
func GenerateTrackingCode(cal shared.CalendarPolicy) (string, error) {
	suffix := make([]byte, trackingSuffix)
	max := big.NewInt(int64(len(trackingAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate tracking code: %w", err)
		}
		suffix[i] = trackingAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%s-%s", trackingPrefix, cal.DateStamp(), suffix), nil
}

// ValidateTrackingCode checks a caller-supplied tracking code
func ValidateTrackingCode(code string) error {
	if !trackingCodePattern.MatchString(code) {
		return shared.NewValidationError("tracking code must be 3-64 upper-case letters, digits or hyphens")
	}
	return nil
}
