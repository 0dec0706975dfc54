package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/repository"
	"github.com/yeremiapane/cafe-pos/utils"
	"gorm.io/gorm"
)

// Broadcaster receives relayed outbox changes. The kds hub is the production
// implementation.
type Broadcaster interface {
	OrderUpdated(order models.Order)
	OrderDeleted(orderID uint)
	TableUpdated(table models.Table, created bool)
	PaymentRecorded(payment models.Payment)
	UnpaidChanged(entryID uint, action string)
}

type hubBroadcaster struct{}

// HubBroadcaster relays to connected websocket displays.
func HubBroadcaster() Broadcaster { return hubBroadcaster{} }

func (hubBroadcaster) OrderUpdated(order models.Order) {
	kds.BroadcastOrderUpdate(order)
	if order.Kind == models.OrderKindRegular {
		kds.BroadcastKitchenUpdate(order)
	}
}
func (hubBroadcaster) OrderDeleted(orderID uint) { kds.BroadcastOrderDelete(orderID) }
func (hubBroadcaster) TableUpdated(table models.Table, created bool) {
	if created {
		kds.BroadcastTableCreate(table)
		return
	}
	kds.BroadcastTableUpdate(table)
}
func (hubBroadcaster) PaymentRecorded(payment models.Payment) { kds.BroadcastPaymentSuccess(payment) }
func (hubBroadcaster) UnpaidChanged(entryID uint, action string) {
	kds.BroadcastUnpaidUpdate(entryID, action)
}

// ChangeMonitor polls the outbox and relays unprocessed rows.
type ChangeMonitor struct {
	store    *repository.Store
	out      Broadcaster
	StopChan chan struct{}
	Interval time.Duration
	Batch    int
}

func NewChangeMonitor(store *repository.Store, out Broadcaster) *ChangeMonitor {
	return &ChangeMonitor{
		store:    store,
		out:      out,
		StopChan: make(chan struct{}),
		Interval: 1 * time.Second,
		Batch:    100,
	}
}

func (cm *ChangeMonitor) Start() {
	go func() {
		ticker := time.NewTicker(cm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := cm.Poll(context.Background()); err != nil {
					utils.ErrorLogger.WithError(err).Error("Change monitor poll failed")
				}
			case <-cm.StopChan:
				return
			}
		}
	}()
}

func (cm *ChangeMonitor) Stop() {
	close(cm.StopChan)
}

// Poll relays one batch and returns how many rows it processed.
func (cm *ChangeMonitor) Poll(ctx context.Context) (int, error) {
	changes, err := cm.store.PendingChanges(ctx, cm.Batch)
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		return 0, nil
	}

	ids := make([]uint, 0, len(changes))
	for _, change := range changes {
		cm.relay(ctx, change)
		ids = append(ids, change.ID)
	}
	if err := cm.store.MarkChangesProcessed(ctx, ids); err != nil {
		return 0, err
	}
	utils.InfoLogger.WithField("count", len(ids)).Debug("Relayed changes")
	return len(ids), nil
}

func (cm *ChangeMonitor) relay(ctx context.Context, change models.DBChange) {
	id := uint(change.RecordID)
	log := utils.InfoLogger.WithFields(logrus.Fields{
		"table":     change.TableName,
		"action":    change.ActionType,
		"record_id": change.RecordID,
	})

	switch change.TableName {
	case TopicOrders:
		if change.ActionType == models.ActionDelete {
			cm.out.OrderDeleted(id)
			return
		}
		order, err := cm.store.GetOrder(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// deleted after the change was written
			cm.out.OrderDeleted(id)
			return
		}
		if err != nil {
			log.WithError(err).Warn("Error fetching order")
			return
		}
		cm.out.OrderUpdated(*order)
	case TopicTables:
		table, err := cm.store.GetTable(ctx, id)
		if err != nil {
			log.WithError(err).Warn("Error fetching table")
			return
		}
		cm.out.TableUpdated(*table, change.ActionType == models.ActionInsert)
	case TopicPayment:
		payment, err := cm.store.GetPayment(ctx, id)
		if err != nil {
			log.WithError(err).Warn("Error fetching payment")
			return
		}
		cm.out.PaymentRecorded(*payment)
	case TopicUnpaid:
		cm.out.UnpaidChanged(id, change.ActionType)
	default:
		log.Warn("Unknown change table")
	}
}
