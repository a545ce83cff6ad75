package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ChicagoDave/polyplanner/pkg/packing"
	"github.com/ChicagoDave/polyplanner/pkg/planner"
)

// Publisher implements planner.EventPublisher on core NATS subjects:
//
//	<prefix>.progress.<jobID>  packing events
//	<prefix>.status.<jobID>    job status without the result payload
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// NewPublisher connects to NATS.
func NewPublisher(url, prefix string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: conn, prefix: prefix}, nil
}

// ProgressSubject is the subject progress events for jobID go to.
func (p *Publisher) ProgressSubject(jobID string) string {
	return p.prefix + ".progress." + jobID
}

// StatusSubject is the subject status changes for jobID go to.
func (p *Publisher) StatusSubject(jobID string) string {
	return p.prefix + ".status." + jobID
}

func (p *Publisher) PublishProgress(ctx context.Context, jobID string, e packing.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.ProgressSubject(jobID), data)
}

func (p *Publisher) PublishStatus(ctx context.Context, job *planner.Job) error {
	data, err := statusPayload(job)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.StatusSubject(job.ID), data)
}

func statusPayload(job *planner.Job) ([]byte, error) {
	slim := *job
	slim.Result = nil
	return json.Marshal(&slim)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
