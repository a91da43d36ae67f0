// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/juju/errors"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATS stores each queue as a JetStream work queue stream. Messages are
// removed from the stream once acknowledged by Pop.
type NATS struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

func NewNATS(path string) (*NATS, error) {
	conn, err := nats.Connect(path,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second))
	if err != nil {
		return nil, errors.Trace(err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Trace(err)
	}
	return &NATS{conn: conn, js: js}, nil
}

func (n *NATS) Init() error {
	if status := n.conn.Status(); status != nats.CONNECTED && status != nats.CONNECTING && status != nats.RECONNECTING {
		return errors.Errorf("NATS connection is %s", status)
	}
	return nil
}

// stream creates the work queue stream for name if it does not exist yet.
func (n *NATS) stream(ctx context.Context, name string) (jetstream.Stream, error) {
	stream, err := n.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  []string{name},
		Retention: jetstream.WorkQueuePolicy,
	})
	return stream, errors.Trace(err)
}

func (n *NATS) Push(name string, message Message) error {
	ctx := context.Background()
	if _, err := n.stream(ctx, name); err != nil {
		return errors.Trace(err)
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return errors.Trace(err)
	}
	_, err = n.js.Publish(ctx, name, payload)
	return errors.Trace(err)
}

func (n *NATS) Pop(name string) (Message, error) {
	ctx := context.Background()
	stream, err := n.stream(ctx, name)
	if err != nil {
		return Message{}, errors.Trace(err)
	}
	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:   name + "-pop",
		AckPolicy: jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return Message{}, errors.Trace(err)
	}
	batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(time.Second))
	if err != nil {
		return Message{}, errors.Trace(err)
	}
	for msg := range batch.Messages() {
		var message Message
		if err = json.Unmarshal(msg.Data(), &message); err != nil {
			return Message{}, errors.Trace(err)
		}
		if err = msg.Ack(); err != nil {
			return Message{}, errors.Trace(err)
		}
		return message, nil
	}
	if err = batch.Error(); err != nil {
		return Message{}, errors.Trace(err)
	}
	return Message{}, io.EOF
}

func (n *NATS) Close() error {
	n.conn.Close()
	return nil
}
