package custody

import (
	"testing"
	"time"

	"github.com/notaria/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

var (
	clerk  = Actor{ID: "u-clerk", Name: "Front Desk", Role: RoleReception}
	notary = Actor{ID: "u-notary", Name: "Notary", Role: RoleNotary}
)

func fixedCode(code string) CodeGenerator {
	return CodeGeneratorFunc(func() (string, error) { return code, nil })
}

func newTestDocument(t *testing.T, invoiced string) *Document {
	t.Helper()
	doc, err := NewDocument(shared.FixedCalendarPolicy(testNow), Registration{
		TrackingCode:   "NOT-20250315-ABC123",
		Type:           DocumentTypeProtocol,
		ClientName:     "maria perez",
		ClientEmail:    "maria@example.com",
		InvoiceNumber:  "001-001-000000123",
		InvoicedAmount: decimal.RequireFromString(invoiced),
	})
	require.NoError(t, err)
	return doc
}

func TestCustodyStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     CustodyStatus
		to       CustodyStatus
		canTrans bool
	}{
		{StatusInProcess, StatusReadyForPickup, true},
		{StatusInProcess, StatusCancelled, true},
		{StatusInProcess, StatusDeleted, true},
		{StatusInProcess, StatusCreditNote, true},
		{StatusInProcess, StatusDelivered, false},
		{StatusReadyForPickup, StatusDelivered, true},
		{StatusReadyForPickup, StatusCancelled, true},
		{StatusReadyForPickup, StatusDeleted, true},
		{StatusReadyForPickup, StatusInProcess, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusDeleted, false},
		{StatusCancelled, StatusDeleted, false},
		{StatusDeleted, StatusCreditNote, false},
		{StatusCreditNote, StatusDeleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatusEnums_IsValid(t *testing.T) {
	assert.True(t, StatusCreditNote.IsValid())
	assert.False(t, CustodyStatus("ARCHIVED").IsValid())
	assert.True(t, PaymentFullyPaidWithRetention.IsSettled())
	assert.False(t, PaymentPartiallyPaid.IsSettled())
	assert.True(t, DocumentTypeLeases.IsValid())
	assert.False(t, DocumentType("WILL").IsValid())
	assert.False(t, ChannelRetention.IsValid())
	assert.True(t, ChannelCheque.IsValid())
}

func TestNewDocument(t *testing.T) {
	cal := shared.FixedCalendarPolicy(testNow)

	t.Run("starts in process with a pending ledger", func(t *testing.T) {
		doc := newTestDocument(t, "100.004")

		assert.Equal(t, StatusInProcess, doc.Status())
		assert.Empty(t, doc.VerificationCode())
		assert.True(t, doc.InvoicedAmount().Equal(decimal.RequireFromString("100")))
		assert.True(t, doc.AmountPending().Equal(decimal.RequireFromString("100")))
		assert.Equal(t, PaymentPending, doc.PaymentStatus())
		assert.Equal(t, testNow, doc.CreatedAt)
		require.Len(t, doc.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeDocumentRegistered, doc.GetDomainEvents()[0].EventType())
	})

	t.Run("zero invoice is fully paid", func(t *testing.T) {
		doc := newTestDocument(t, "0")
		assert.Equal(t, PaymentFullyPaid, doc.PaymentStatus())
	})

	failures := []struct {
		name string
		reg  Registration
	}{
		{"bad tracking code", Registration{TrackingCode: "x", Type: DocumentTypeOther, ClientName: "a"}},
		{"unknown type", Registration{TrackingCode: "NOT-1", Type: "WILL", ClientName: "a"}},
		{"missing client", Registration{TrackingCode: "NOT-1", Type: DocumentTypeOther}},
		{"negative invoice", Registration{TrackingCode: "NOT-1", Type: DocumentTypeOther, ClientName: "a", InvoicedAmount: decimal.NewFromInt(-1)}},
		{"skip without reason", Registration{TrackingCode: "NOT-1", Type: DocumentTypeOther, ClientName: "a", SkipNotification: true}},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDocument(cal, tt.reg)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestGenerateTrackingCode(t *testing.T) {
	code, err := GenerateTrackingCode(shared.FixedCalendarPolicy(testNow))
	require.NoError(t, err)
	assert.Regexp(t, `^NOT-20250315-[A-Z2-9]{6}$`, code)
	assert.NoError(t, ValidateTrackingCode(code))
}

func TestSnapshotRoundTrip(t *testing.T) {
	doc := newTestDocument(t, "10")
	require.NoError(t, doc.MarkReady(clerk, fixedCode("0420"), testNow))

	restored := FromSnapshot(doc.Snapshot())
	assert.Equal(t, doc.ID, restored.ID)
	assert.Equal(t, StatusReadyForPickup, restored.Status())
	assert.Equal(t, "0420", restored.VerificationCode())
	assert.Equal(t, doc.Totals(), restored.Totals())
	assert.Empty(t, restored.GetDomainEvents())
}

func TestSetNotificationPreference(t *testing.T) {
	doc := newTestDocument(t, "10")

	assert.ErrorIs(t, doc.SetNotificationPreference(true, " ", testNow), shared.ErrValidation)

	require.NoError(t, doc.SetNotificationPreference(true, "client picks up in person", testNow))
	assert.True(t, doc.SkipNotification())
	assert.Equal(t, "client picks up in person", doc.SkipNotificationReason())

	require.NoError(t, doc.SetNotificationPreference(false, "ignored", testNow))
	assert.False(t, doc.SkipNotification())
	assert.Empty(t, doc.SkipNotificationReason())

	require.NoError(t, doc.MarkReady(clerk, fixedCode("1111"), testNow))
	assert.ErrorIs(t, doc.SetNotificationPreference(true, "too late", testNow), shared.ErrInvalidTransition)
}
