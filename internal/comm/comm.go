package comm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
)

// NATS subjects shared by the services.
const (
	TopicBinderEvents  = "binder.events"
	TopicSyncRequest   = "catalog.sync.request"
	TopicCatalogSynced = "catalog.synced"
)

// Message types carried in Envelope.Type.
const (
	TypeCardAdded     = "binder-card-added"
	TypeCardRemoved   = "binder-card-removed"
	TypeReordered     = "binder-reordered"
	TypeBinderDeleted = "binder-deleted"
	TypeSyncRequest   = "catalog-sync-request"
	TypeSyncReport    = "catalog-sync-report"
	TypeError         = "error"
	TypePing          = "ping"
	TypePong          = "pong"
)

// Envelope wraps every message on the bus and on the websocket feed.
type Envelope struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
}

// BinderEvent describes a change to one binder, routed by owner.
type BinderEvent struct {
	OwnerID      int64             `json:"owner_id"`
	BinderID     int64             `json:"binder_id"`
	BinderCardID int64             `json:"binder_card_id,omitempty"`
	Placement    *models.Placement `json:"placement,omitempty"`
	Moves        []models.Move     `json:"moves,omitempty"`
	At           time.Time         `json:"at"`
}

// SyncRequest asks the sync worker for an out-of-cadence catalog sync.
type SyncRequest struct {
	RequestedBy int64     `json:"requested_by"`
	At          time.Time `json:"at"`
}

// SyncResult is published on TopicCatalogSynced after every run.
type SyncResult struct {
	models.SyncReport
	Error string `json:"error,omitempty"`
}

// Encode marshals payload into an Envelope of the given type.
func Encode(msgType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}

	msg := &Envelope{
		Type: msgType,
		Data: data,
	}

	out, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return out, nil
}

// Decode unmarshals an Envelope.
func Decode(raw []byte) (*Envelope, error) {
	msg := &Envelope{}
	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("envelope without type")
	}
	return msg, nil
}
