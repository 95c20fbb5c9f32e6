// Package mocks holds testify mocks of the storage, delivery and gateway
// interfaces shared by the service tests.
package mocks

import (
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/notify"
	"bhrc/backend/internal/payment"
	"bhrc/backend/internal/storage"
	"bhrc/backend/internal/uploads"
	"context"
	"mime/multipart"
	"time"

	"github.com/stretchr/testify/mock"
)

// Repository is a mock implementation of storage.Repository.
type Repository[T any] struct {
	mock.Mock
}

func (m *Repository[T]) List(ctx context.Context, q storage.ListQuery) ([]T, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]T)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *Repository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *Repository[T]) FindOne(ctx context.Context, conds map[string]any) (*T, error) {
	args := m.Called(ctx, conds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *Repository[T]) FindAll(ctx context.Context, conds map[string]any, order string) ([]T, error) {
	args := m.Called(ctx, conds, order)
	items, _ := args.Get(0).([]T)
	return items, args.Error(1)
}

func (m *Repository[T]) Count(ctx context.Context, conds map[string]any) (int64, error) {
	args := m.Called(ctx, conds)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Repository[T]) Create(ctx context.Context, entity *T) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *Repository[T]) Update(ctx context.Context, entity *T, columns ...string) error {
	args := m.Called(ctx, entity, columns)
	return args.Error(0)
}

func (m *Repository[T]) UpdateColumns(ctx context.Context, id string, values map[string]any) error {
	args := m.Called(ctx, id, values)
	return args.Error(0)
}

func (m *Repository[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// SessionStore is a mock implementation of auth.SessionStore.
type SessionStore struct {
	mock.Mock
}

func (m *SessionStore) Save(ctx context.Context, session storage.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *SessionStore) Get(ctx context.Context, id string) (*storage.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Session), args.Error(1)
}

func (m *SessionStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// RateLimiter is a mock fixed-window limiter.
type RateLimiter struct {
	mock.Mock
}

func (m *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

// FileStore is a mock upload store.
type FileStore struct {
	mock.Mock
}

func (m *FileStore) Save(bucket string, fh *multipart.FileHeader) (uploads.File, error) {
	args := m.Called(bucket, fh)
	return args.Get(0).(uploads.File), args.Error(1)
}

func (m *FileStore) Remove(paths ...string) error {
	args := m.Called(paths)
	return args.Error(0)
}

// Sender is a mock implementation of notify.Sender.
type Sender struct {
	mock.Mock
}

func (m *Sender) Send(ctx context.Context, req notify.SendRequest) (notify.SendResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(notify.SendResult), args.Error(1)
}

func (m *Sender) SendBatch(ctx context.Context, reqs []notify.SendRequest) ([]notify.SendResult, error) {
	args := m.Called(ctx, reqs)
	results, _ := args.Get(0).([]notify.SendResult)
	return results, args.Error(1)
}

// Gateway is a mock implementation of payment.Gateway.
type Gateway struct {
	mock.Mock
}

func (m *Gateway) Charge(ctx context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.ChargeResult), args.Error(1)
}

// Notifier mocks every notification the services send.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) ComplaintReceived(ctx context.Context, c *models.Complaint) error {
	return m.Called(ctx, c).Error(0)
}

func (m *Notifier) ComplaintStatusChanged(ctx context.Context, c *models.Complaint) error {
	return m.Called(ctx, c).Error(0)
}

func (m *Notifier) MemberWelcome(ctx context.Context, member *models.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *Notifier) MemberApproved(ctx context.Context, member *models.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *Notifier) DonationReceipt(ctx context.Context, d *models.Donation) error {
	return m.Called(ctx, d).Error(0)
}

func (m *Notifier) NewsletterWelcome(ctx context.Context, s *models.NewsletterSubscriber) error {
	return m.Called(ctx, s).Error(0)
}

func (m *Notifier) Campaign(ctx context.Context, c *models.NewsletterCampaign, subs []models.NewsletterSubscriber) (int, error) {
	args := m.Called(ctx, c, subs)
	return args.Int(0), args.Error(1)
}
