package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avvvet/deckvault-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Conn is the part of *nats.Conn the broker needs.
type Conn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// CacheInvalidator drops cached catalog reads.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// Broker connects the vault API to the bus: it publishes binder events and
// sync requests and listens for finished catalog syncs.
type Broker struct {
	Conn  Conn
	Cache CacheInvalidator
}

func NewBroker(conn Conn, cache CacheInvalidator) *Broker {
	return &Broker{
		Conn:  conn,
		Cache: cache,
	}
}

// PublishBinderEvent is best effort; failures are logged only.
func (b *Broker) PublishBinderEvent(eventType string, ev comm.BinderEvent) {
	payload, err := comm.Encode(eventType, ev)
	if err != nil {
		log.Errorf("Error encoding %s event: %s", eventType, err)
		return
	}
	b.Publish(comm.TopicBinderEvents, payload)
}

// RequestCatalogSync asks the sync worker for an immediate run.
func (b *Broker) RequestCatalogSync(requestedBy int64) error {
	payload, err := comm.Encode(comm.TypeSyncRequest, comm.SyncRequest{
		RequestedBy: requestedBy,
		At:          time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return b.Publish(comm.TopicSyncRequest, payload)
}

// SubscribeCatalogSynced flushes the card cache whenever a sync finishes.
func (b *Broker) SubscribeCatalogSynced() (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(comm.TopicCatalogSynced, b.handleSynced)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

func (b *Broker) handleSynced(msgNats *nats.Msg) {
	msg, err := comm.Decode(msgNats.Data)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	if msg.Type != comm.TypeSyncReport {
		log.Warnf("unexpected message %q on %s", msg.Type, comm.TopicCatalogSynced)
		return
	}

	result := comm.SyncResult{}
	if err := json.Unmarshal(msg.Data, &result); err != nil {
		log.Errorf("Error decoding sync report: %s", err)
		return
	}

	if result.Error != "" && result.Upserted == 0 {
		log.Infof("catalog sync failed upstream (%s), cache kept", result.Error)
		return
	}

	if b.Cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.Cache.InvalidateCache(ctx); err != nil {
		log.Errorf("Error flushing card cache: %s", err)
		return
	}
	log.Infof("card cache flushed after sync (%d cards upserted)", result.Upserted)
}
