// ABOUTME: Purchase order tracking service
// ABOUTME: Reports where an order sits on the status chain and advances it one step at a time
package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/notify"
)

// OrderStore is the slice of the order repository this service needs.
type OrderStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.POStatus, description string, metadata models.Metadata) (*models.POTimelineEvent, error)
}

// Info is a read-only snapshot of an order's progress.
type Info struct {
	OrderID             uuid.UUID                `json:"order_id"`
	ClientID            string                   `json:"client_id"`
	CurrentStatus       models.POStatus          `json:"current_status"`
	NextStatus          *models.POStatus         `json:"next_status,omitempty"`
	CanAdvance          bool                     `json:"can_advance"`
	PaymentStatus       models.PaymentStatus     `json:"payment_status"`
	Timeline            []models.POTimelineEvent `json:"timeline"`
	EstimatedCompletion *time.Time               `json:"estimated_completion,omitempty"`
}

type Service struct {
	orders   OrderStore
	notifier notify.Notifier
	log      *logrus.Entry
}

func NewService(orders OrderStore, notifier notify.Notifier, logger *logrus.Logger) *Service {
	return &Service{
		orders:   orders,
		notifier: notifier,
		log:      logger.WithField("service", "tracking"),
	}
}

func (s *Service) GetTrackingInfo(ctx context.Context, orderID uuid.UUID) (*Info, error) {
	po, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return infoFor(po), nil
}

// AdvanceStatus moves the order to the next status on the chain. It returns
// false without touching the order when there is no successor.
func (s *Service) AdvanceStatus(ctx context.Context, orderID uuid.UUID, metadata models.Metadata) (bool, error) {
	po, err := s.load(ctx, orderID)
	if err != nil {
		return false, err
	}

	info := infoFor(po)
	if !info.CanAdvance {
		s.log.WithFields(logrus.Fields{
			"order_id": orderID,
			"status":   info.CurrentStatus,
		}).Debug("order has no next status")
		return false, nil
	}

	next := *info.NextStatus
	description := fmt.Sprintf("Status changed from %s to %s", info.CurrentStatus, next)

	event, err := s.orders.UpdateStatus(ctx, orderID, next, description, metadata)
	if err != nil {
		return false, errors.Wrap(err, "update order status")
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     info.CurrentStatus,
		"to":       next,
	}).Info("order advanced")

	po.Status = next
	s.notifyClient(ctx, po, event)
	return true, nil
}

// CancelOrder moves any non-terminal order to cancelled. Cancellation sits
// outside the status chain.
func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error {
	po, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	if po.Status.Terminal() {
		return apperr.Invalid("order %s is already %s", orderID, po.Status)
	}

	description := "Order cancelled"
	if reason != "" {
		description += ": " + reason
	}

	var metadata models.Metadata
	if reason != "" {
		metadata = models.Metadata{"reason": reason, "previous_status": string(po.Status)}
	}

	event, err := s.orders.UpdateStatus(ctx, orderID, models.POCancelled, description, metadata)
	if err != nil {
		return errors.Wrap(err, "cancel order")
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     po.Status,
		"reason":   reason,
	}).Warn("order cancelled")

	po.Status = models.POCancelled
	s.notifyClient(ctx, po, event)
	return nil
}

func (s *Service) load(ctx context.Context, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	po, err := s.orders.Get(ctx, orderID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("purchase order %s not found", orderID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return po, nil
}

func (s *Service) notifyClient(ctx context.Context, po *models.PurchaseOrder, event *models.POTimelineEvent) {
	if s.notifier == nil || event == nil {
		return
	}
	if err := s.notifier.OrderStatusChanged(ctx, po, event); err != nil {
		s.log.WithError(err).WithField("order_id", po.ID).Warn("client notification failed")
	}
}

func infoFor(po *models.PurchaseOrder) *Info {
	info := &Info{
		OrderID:             po.ID,
		ClientID:            po.ClientID,
		CurrentStatus:       po.Status,
		PaymentStatus:       po.PaymentStatus,
		Timeline:            po.Timeline,
		EstimatedCompletion: po.EstimatedCompletion,
	}
	if info.Timeline == nil {
		info.Timeline = []models.POTimelineEvent{}
	}
	if next, ok := models.NextPOStatus(po.Status); ok {
		info.NextStatus = &next
		info.CanAdvance = true
	}
	return info
}
