package custody

// CustodyStatus is where a document sits in its handling workflow
type CustodyStatus string

const (
	StatusInProcess      CustodyStatus = "IN_PROCESS"
	StatusReadyForPickup CustodyStatus = "READY_FOR_PICKUP"
	StatusDelivered      CustodyStatus = "DELIVERED"
	StatusCancelled      CustodyStatus = "CANCELLED"
	StatusDeleted        CustodyStatus = "DELETED"
	StatusCreditNote     CustodyStatus = "CREDIT_NOTE"
)

// IsValid checks if the status is a valid CustodyStatus
func (s CustodyStatus) IsValid() bool {
	switch s {
	case StatusInProcess, StatusReadyForPickup, StatusDelivered,
		StatusCancelled, StatusDeleted, StatusCreditNote:
		return true
	}
	return false
}

// String returns the string representation of CustodyStatus
func (s CustodyStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that accept no further transitions
func (s CustodyStatus) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusDeleted, StatusCreditNote:
		return true
	}
	return false
}

// IsEliminated returns true for the two elimination branches
func (s CustodyStatus) IsEliminated() bool {
	return s == StatusDeleted || s == StatusCreditNote
}

// CanTransitionTo checks if the status can transition to the target status
func (s CustodyStatus) CanTransitionTo(target CustodyStatus) bool {
	switch s {
	case StatusInProcess:
		switch target {
		case StatusReadyForPickup, StatusCancelled, StatusDeleted, StatusCreditNote:
			return true
		}
	case StatusReadyForPickup:
		switch target {
		case StatusDelivered, StatusCancelled, StatusDeleted, StatusCreditNote:
			return true
		}
	case StatusDelivered, StatusCancelled, StatusDeleted, StatusCreditNote:
		return false // Terminal states
	}
	return false
}

// PaymentStatus is the aggregate payment tag derived from the ledger fold
type PaymentStatus string

const (
	PaymentPending                PaymentStatus = "PENDING"
	PaymentPartiallyPaid          PaymentStatus = "PARTIALLY_PAID"
	PaymentFullyPaid              PaymentStatus = "FULLY_PAID"
	PaymentFullyPaidWithRetention PaymentStatus = "FULLY_PAID_WITH_RETENTION"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentPartiallyPaid, PaymentFullyPaid, PaymentFullyPaidWithRetention:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsSettled returns true for either fully-paid tag
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentFullyPaid || s == PaymentFullyPaidWithRetention
}

// DocumentType is the closed set of notarial document kinds
type DocumentType string

const (
	DocumentTypeProtocol       DocumentType = "PROTOCOL"
	DocumentTypeProceedings    DocumentType = "PROCEEDINGS"
	DocumentTypeCertifications DocumentType = "CERTIFICATIONS"
	DocumentTypeLeases         DocumentType = "LEASES"
	DocumentTypeOther          DocumentType = "OTHER"
)

// IsValid checks if the type is a valid DocumentType
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeProtocol, DocumentTypeProceedings, DocumentTypeCertifications,
		DocumentTypeLeases, DocumentTypeOther:
		return true
	}
	return false
}

// String returns the string representation of DocumentType
func (t DocumentType) String() string {
	return string(t)
}
