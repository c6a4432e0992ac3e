package broker

import (
	"encoding/json"

	"github.com/avvvet/deckvault-services/internal/comm"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// QueueGroup makes a sync request reach only one worker instance.
const QueueGroup = "syncsvc"

type Conn interface {
	Publish(subj string, data []byte) error
	QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
}

type Broker struct {
	Conn       Conn
	Trigger    func() bool
	InstanceID string
}

func NewBroker(conn Conn, trigger func() bool, instanceID string) *Broker {
	return &Broker{
		Conn:       conn,
		Trigger:    trigger,
		InstanceID: instanceID,
	}
}

// SubscribeSyncRequests triggers the scheduler for every manual sync request.
func (b *Broker) SubscribeSyncRequests() (*nats.Subscription, error) {
	sub, err := b.Conn.QueueSubscribe(comm.TopicSyncRequest, QueueGroup, b.handleRequest)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) handleRequest(msgNats *nats.Msg) {
	msg, err := comm.Decode(msgNats.Data)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	if msg.Type != comm.TypeSyncRequest {
		log.Warnf("unexpected message %q on %s", msg.Type, comm.TopicSyncRequest)
		return
	}

	req := comm.SyncRequest{}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Errorf("Error decoding sync request: %s", err)
		return
	}

	if b.Trigger() {
		log.Infof("catalog sync requested by user %d", req.RequestedBy)
	} else {
		log.Infof("catalog sync request from user %d ignored, one is already queued", req.RequestedBy)
	}
}

// PublishReport announces the outcome of a run. It matches scheduler.ReportHook.
func (b *Broker) PublishReport(report models.SyncReport, runErr error) {
	result := comm.SyncResult{SyncReport: report}
	result.InstanceID = b.InstanceID
	if runErr != nil {
		result.Error = runErr.Error()
	}

	payload, err := comm.Encode(comm.TypeSyncReport, result)
	if err != nil {
		log.Errorf("Error encoding sync report: %s", err)
		return
	}

	if err := b.Conn.Publish(comm.TopicCatalogSynced, payload); err != nil {
		log.Errorf("Error publishing to topic %s: %s", comm.TopicCatalogSynced, err)
	}
}
