package payout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

const payoutRecordType = "registrar.payout.v1"

// producer is the slice of *kgo.Client the transferer needs.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaTransferer publishes payout instructions for a downstream settlement
// worker. A transfer succeeds once the broker acknowledged the record.
type KafkaTransferer struct {
	producer producer
	topic    string
}

func NewKafkaTransferer(p producer, topic string) *KafkaTransferer {
	return &KafkaTransferer{producer: p, topic: topic}
}

func (k *KafkaTransferer) Transfer(ctx context.Context, in Instruction) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode payout instruction: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(in.Recipient.String()),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte(payoutRecordType)},
			{Key: "reference", Value: []byte(in.Reference)},
		},
	}
	if err := k.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		if deliveryUncertain(err) {
			return fmt.Errorf("publish payout %s: %w: %w", in.Reference, ErrOutcomeUnknown, err)
		}
		return fmt.Errorf("publish payout %s: %w", in.Reference, err)
	}
	return nil
}

// deliveryUncertain reports produce failures after which the broker may still
// hold the record. Only a produce that never left the client, or one the
// broker answered with an error, is known not to be delivered.
func deliveryUncertain(err error) bool {
	switch {
	case errors.Is(err, kgo.ErrRecordTimeout),
		errors.Is(err, kgo.ErrRecordRetries),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return true
	}
	return false
}
