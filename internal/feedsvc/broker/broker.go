package broker

import (
	"encoding/json"

	"github.com/avvvet/deckvault-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Conn interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Broker forwards binder events from the bus to the owner's open sockets.
type Broker struct {
	Conn         Conn
	OwnerSockets func(int64) []string
	SendRaw      func(string, []byte) error
}

func NewBroker(conn Conn, fncOwnerSockets func(int64) []string, fncSendRaw func(string, []byte) error) *Broker {
	return &Broker{
		Conn:         conn,
		OwnerSockets: fncOwnerSockets,
		SendRaw:      fncSendRaw,
	}
}

func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message, err := comm.Decode(msgNats.Data)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	switch message.Type {
	case comm.TypeCardAdded, comm.TypeCardRemoved, comm.TypeReordered, comm.TypeBinderDeleted:
		ev := comm.BinderEvent{}
		if err := json.Unmarshal(message.Data, &ev); err != nil {
			log.Errorf("Error decoding binder event: %s", err)
			return
		}
		b.sendToOwner(ev.OwnerID, msgNats.Data)
	default:
		log.Warnf("Unknown message %s", message.Type)
	}
}

func (b *Broker) sendToOwner(ownerID int64, raw []byte) {
	for _, socketId := range b.OwnerSockets(ownerID) {
		if err := b.SendRaw(socketId, raw); err != nil {
			log.Warnf("Error sending to socket %s: %v", socketId, err)
		}
	}
}
