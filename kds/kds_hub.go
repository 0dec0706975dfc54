package kds

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/utils"
)

// Event types
const (
	EventOrderUpdate   = "order_update"
	EventOrderDelete   = "order_delete"
	EventKitchenUpdate = "kitchen_update"
	EventTableUpdate   = "table_update"
	EventTableCreate   = "table_create"
	EventPaymentDone   = "payment_success"
	EventUnpaidUpdate  = "unpaid_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// KDSHub holds every connected display (chef, staff, admin).
type KDSHub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

var kdsHub = KDSHub{
	clients: make(map[*websocket.Conn]string),
}

func RegisterClient(conn *websocket.Conn, role string) {
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	kdsHub.clients[conn] = role
}

func UnregisterClient(conn *websocket.Conn) {
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	delete(kdsHub.clients, conn)
	conn.Close()
}

// ClientCount returns the number of connected displays.
func ClientCount() int {
	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()
	return len(kdsHub.clients)
}

func BroadcastOrderUpdate(order models.Order) {
	broadcast(Message{Event: EventOrderUpdate, Data: order})
}

func BroadcastOrderDelete(orderID uint) {
	broadcast(Message{Event: EventOrderDelete, Data: map[string]uint{"id": orderID}})
}

// BroadcastKitchenUpdate goes to kitchen screens only.
func BroadcastKitchenUpdate(order models.Order) {
	broadcast(Message{Event: EventKitchenUpdate, Data: order}, "chef", "admin")
}

func BroadcastTableUpdate(table models.Table) {
	broadcast(Message{Event: EventTableUpdate, Data: table})
}

func BroadcastTableCreate(table models.Table) {
	broadcast(Message{Event: EventTableCreate, Data: table})
}

func BroadcastPaymentSuccess(payment models.Payment) {
	broadcast(Message{Event: EventPaymentDone, Data: payment}, "staff", "admin")
}

func BroadcastUnpaidUpdate(entryID uint, action string) {
	broadcast(Message{
		Event: EventUnpaidUpdate,
		Data: map[string]interface{}{
			"id":     entryID,
			"action": action,
		},
	}, "staff", "admin")
}

// broadcast sends msg to every client, or only to the given roles.
func broadcast(msg Message, roles ...string) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Error marshaling message")
		return
	}

	kdsHub.mutex.Lock()
	defer kdsHub.mutex.Unlock()

	sent := 0
	for conn, role := range kdsHub.clients {
		if len(roles) > 0 && !contains(roles, role) {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithError(err).WithField("role", role).Warn("Error sending message to client")
			continue
		}
		sent++
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"event":   msg.Event,
		"clients": sent,
	}).Debug("Broadcast")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
