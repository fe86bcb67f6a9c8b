package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"invoiceflow/application/ports"
	"invoiceflow/domain/core/entities"
	"invoiceflow/domain/core/valueobjects"
	"invoiceflow/domain/events"
	"invoiceflow/domain/invoice"
	"invoiceflow/domain/ocr"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *entities.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Document), args.Error(1)
}

func (m *MockDocumentRepository) GetByLocation(ctx context.Context, location valueobjects.DocumentLocation) (*entities.Document, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByStatus(ctx context.Context, status entities.DocumentStatus, limit int) ([]*entities.Document, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id valueobjects.DocumentID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) DeleteBatch(ctx context.Context, ids []valueobjects.DocumentID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Save(ctx context.Context, documentID valueobjects.DocumentID, record *invoice.Record) error {
	args := m.Called(ctx, documentID, record)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByDocumentID(ctx context.Context, documentID valueobjects.DocumentID) (*invoice.Record, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Record), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, criteria ports.ListCriteria) ([]*ports.StoredInvoice, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ports.StoredInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, documentID valueobjects.DocumentID) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

type MockDocumentAnalyzer struct {
	mock.Mock
}

func (m *MockDocumentAnalyzer) AnalyzeDocument(ctx context.Context, location valueobjects.DocumentLocation) ([]ocr.Block, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ocr.Block), args.Error(1)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Head(ctx context.Context, location valueobjects.DocumentLocation) (ports.ObjectInfo, error) {
	args := m.Called(ctx, location)
	return args.Get(0).(ports.ObjectInfo), args.Error(1)
}

func (m *MockObjectStore) Get(ctx context.Context, location valueobjects.DocumentLocation) ([]byte, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, location valueobjects.DocumentLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

type MockNotificationPublisher struct {
	mock.Mock
}

func (m *MockNotificationPublisher) PublishProcessed(ctx context.Context, documentID valueobjects.DocumentID, record *invoice.Record) error {
	args := m.Called(ctx, documentID, record)
	return args.Error(0)
}

func (m *MockNotificationPublisher) PublishFailed(ctx context.Context, documentID valueobjects.DocumentID, stage, reason string) error {
	args := m.Called(ctx, documentID, stage, reason)
	return args.Error(0)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventBus) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(eventType string, handler ports.EventHandler) error {
	args := m.Called(eventType, handler)
	return args.Error(0)
}

func (m *MockEventBus) Unsubscribe(eventType string, handler ports.EventHandler) error {
	args := m.Called(eventType, handler)
	return args.Error(0)
}

type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) SaveEvents(ctx context.Context, batch []events.DomainEvent) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockEventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	args := m.Called(ctx, aggregateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]events.DomainEvent), args.Error(1)
}

func (m *MockEventStore) GetEventsByType(ctx context.Context, eventType string, limit int) ([]events.DomainEvent, error) {
	args := m.Called(ctx, eventType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]events.DomainEvent), args.Error(1)
}

func (m *MockEventStore) DeleteEvents(ctx context.Context, aggregateID string) error {
	args := m.Called(ctx, aggregateID)
	return args.Error(0)
}

type MockProcessingLock struct {
	mock.Mock
}

func (m *MockProcessingLock) Acquire(ctx context.Context, documentID valueobjects.DocumentID, ttl time.Duration) error {
	args := m.Called(ctx, documentID, ttl)
	return args.Error(0)
}

func (m *MockProcessingLock) Release(ctx context.Context, documentID valueobjects.DocumentID) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

func (m *MockProcessingLock) Extend(ctx context.Context, documentID valueobjects.DocumentID, ttl time.Duration) error {
	args := m.Called(ctx, documentID, ttl)
	return args.Error(0)
}
