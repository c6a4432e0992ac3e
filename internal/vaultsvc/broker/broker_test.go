package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/avvvet/deckvault-services/internal/comm"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	out     []published
	failPub bool
	subs    map[string]nats.MsgHandler
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	if c.failPub {
		return errors.New("nats: connection closed")
	}
	c.out = append(c.out, published{subj, data})
	return nil
}

func (c *fakeConn) Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error) {
	if c.subs == nil {
		c.subs = map[string]nats.MsgHandler{}
	}
	c.subs[subj] = cb
	return &nats.Subscription{Subject: subj}, nil
}

type countingCache struct{ flushes int }

func (c *countingCache) InvalidateCache(ctx context.Context) error {
	c.flushes++
	return nil
}

func TestPublishBinderEvent(t *testing.T) {
	conn := &fakeConn{}
	b := NewBroker(conn, nil)

	b.PublishBinderEvent(comm.TypeCardAdded, comm.BinderEvent{OwnerID: 4, BinderID: 9, BinderCardID: 30})

	require.Len(t, conn.out, 1)
	assert.Equal(t, comm.TopicBinderEvents, conn.out[0].subject)

	msg, err := comm.Decode(conn.out[0].data)
	require.NoError(t, err)
	assert.Equal(t, comm.TypeCardAdded, msg.Type)

	var ev comm.BinderEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, int64(4), ev.OwnerID)
	assert.Equal(t, int64(30), ev.BinderCardID)
}

func TestPublishFailureIsSwallowedForEvents(t *testing.T) {
	b := NewBroker(&fakeConn{failPub: true}, nil)
	assert.NotPanics(t, func() {
		b.PublishBinderEvent(comm.TypeCardRemoved, comm.BinderEvent{OwnerID: 1})
	})
	assert.Error(t, b.RequestCatalogSync(1))
}

func TestRequestCatalogSync(t *testing.T) {
	conn := &fakeConn{}
	require.NoError(t, NewBroker(conn, nil).RequestCatalogSync(12))

	require.Len(t, conn.out, 1)
	assert.Equal(t, comm.TopicSyncRequest, conn.out[0].subject)

	msg, err := comm.Decode(conn.out[0].data)
	require.NoError(t, err)
	var req comm.SyncRequest
	require.NoError(t, json.Unmarshal(msg.Data, &req))
	assert.Equal(t, int64(12), req.RequestedBy)
}

func TestCatalogSyncedFlushesCache(t *testing.T) {
	conn := &fakeConn{}
	cache := &countingCache{}
	b := NewBroker(conn, cache)

	_, err := b.SubscribeCatalogSynced()
	require.NoError(t, err)
	handler := conn.subs[comm.TopicCatalogSynced]
	require.NotNil(t, handler)

	ok, err := comm.Encode(comm.TypeSyncReport, comm.SyncResult{SyncReport: models.SyncReport{Upserted: 3}})
	require.NoError(t, err)
	handler(&nats.Msg{Data: ok})
	assert.Equal(t, 1, cache.flushes)

	failed, err := comm.Encode(comm.TypeSyncReport, comm.SyncResult{Error: "catalog provider: timeout"})
	require.NoError(t, err)
	handler(&nats.Msg{Data: failed})
	assert.Equal(t, 1, cache.flushes)

	handler(&nats.Msg{Data: []byte("garbage")})
	assert.Equal(t, 1, cache.flushes)
}
