package handler

import (
	"context"

	"github.com/google/uuid"
	appcustody "github.com/notaria/backend/internal/application/custody"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/stretchr/testify/mock"
)

type mockDocumentService struct {
	mock.Mock
}

func (m *mockDocumentService) docResult(args mock.Arguments) (*appcustody.DocumentResponse, error) {
	if v := args.Get(0); v != nil {
		return v.(*appcustody.DocumentResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDocumentService) ledgerResult(args mock.Arguments) (*appcustody.LedgerMutationResponse, error) {
	if v := args.Get(0); v != nil {
		return v.(*appcustody.LedgerMutationResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDocumentService) RegisterDocument(ctx context.Context, actor custody.Actor, req appcustody.RegisterDocumentRequest) (*appcustody.DocumentResponse, error) {
	return m.docResult(m.Called(ctx, actor, req))
}

func (m *mockDocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*appcustody.DocumentResponse, error) {
	return m.docResult(m.Called(ctx, id))
}

func (m *mockDocumentService) GetDocumentByTrackingCode(ctx context.Context, code string) (*appcustody.DocumentResponse, error) {
	return m.docResult(m.Called(ctx, code))
}

func (m *mockDocumentService) ListPayments(ctx context.Context, id uuid.UUID) ([]appcustody.PaymentEventResponse, error) {
	args := m.Called(ctx, id)
	events, _ := args.Get(0).([]appcustody.PaymentEventResponse)
	return events, args.Error(1)
}

func (m *mockDocumentService) ListAudit(ctx context.Context, id uuid.UUID) ([]appcustody.AuditRecordResponse, error) {
	args := m.Called(ctx, id)
	trail, _ := args.Get(0).([]appcustody.AuditRecordResponse)
	return trail, args.Error(1)
}

func (m *mockDocumentService) SetNotificationPreference(ctx context.Context, actor custody.Actor, id uuid.UUID, req appcustody.NotificationPreferenceRequest) (*appcustody.DocumentResponse, error) {
	return m.docResult(m.Called(ctx, actor, id, req))
}

func (m *mockDocumentService) MarkReady(ctx context.Context, actor custody.Actor, id uuid.UUID) (*appcustody.MarkReadyResponse, error) {
	args := m.Called(ctx, actor, id)
	if v := args.Get(0); v != nil {
		return v.(*appcustody.MarkReadyResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDocumentService) Deliver(ctx context.Context, actor custody.Actor, id uuid.UUID, req appcustody.DeliverRequest) (*appcustody.DocumentResponse, error) {
	return m.docResult(m.Called(ctx, actor, id, req))
}

func (m *mockDocumentService) Cancel(ctx context.Context, actor custody.Actor, id uuid.UUID, req appcustody.CancelRequest) (*appcustody.DocumentResponse, error) {
	return m.docResult(m.Called(ctx, actor, id, req))
}

func (m *mockDocumentService) Eliminate(ctx context.Context, actor custody.Actor, id uuid.UUID, req appcustody.EliminateRequest) (*appcustody.DocumentResponse, error) {
	return m.docResult(m.Called(ctx, actor, id, req))
}

func (m *mockDocumentService) RegisterPayment(ctx context.Context, actor custody.Actor, id uuid.UUID, req appcustody.RegisterPaymentRequest) (*appcustody.LedgerMutationResponse, error) {
	return m.ledgerResult(m.Called(ctx, actor, id, req))
}

func (m *mockDocumentService) PreviewRetention(ctx context.Context, actor custody.Actor, id uuid.UUID, xmlData []byte) (*appcustody.RetentionPreviewResponse, error) {
	args := m.Called(ctx, actor, id, xmlData)
	if v := args.Get(0); v != nil {
		return v.(*appcustody.RetentionPreviewResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDocumentService) ApplyRetention(ctx context.Context, actor custody.Actor, id uuid.UUID, xmlData []byte) (*appcustody.LedgerMutationResponse, error) {
	return m.ledgerResult(m.Called(ctx, actor, id, xmlData))
}

func (m *mockDocumentService) ReversePayment(ctx context.Context, actor custody.Actor, id, eventID uuid.UUID, req appcustody.ReversePaymentRequest) (*appcustody.LedgerMutationResponse, error) {
	return m.ledgerResult(m.Called(ctx, actor, id, eventID, req))
}
