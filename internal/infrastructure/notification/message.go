package notification

import (
	"fmt"
	"strings"

	appcustody "github.com/notaria/backend/internal/application/custody"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Message is the rendered text of a notice
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

var docTypeLabels = map[string]string{
	"PROTOCOL":       "protocolo",
	"PROCEEDINGS":    "diligencia",
	"CERTIFICATIONS": "certificación",
	"LEASES":         "contrato de arrendamiento",
	"OTHER":          "documento",
}

// Compose renders notice in Spanish. Client names are stored as typed at the
// front desk, so they are title-cased here.
func Compose(notice appcustody.ReadyNotice) Message {
	name := cases.Title(language.Spanish).String(strings.Join(strings.Fields(notice.ClientName), " "))
	label, ok := docTypeLabels[notice.DocumentType]
	if !ok {
		label = docTypeLabels["OTHER"]
	}

	return Message{
		Subject: fmt.Sprintf("Su %s %s está listo para retirar", label, notice.TrackingCode),
		Body: fmt.Sprintf(
			"Estimado/a %s:\n\nSu %s con código %s está listo para retirar en la notaría.\n"+
				"Presente el código de verificación %s al momento del retiro.\n",
			name, label, notice.TrackingCode, notice.VerificationCode,
		),
	}
}
