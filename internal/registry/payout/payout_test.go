package payout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "registrar/pkg/domain"
)

var recipient = id.Identity("0x00000000000000000000000000000000000000c3")

func instruction(amount int64) Instruction {
	return Instruction{
		Reference:   "wd-1",
		Recipient:   recipient,
		Amount:      decimal.NewFromInt(amount),
		RequestedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("credits the recipient", func(t *testing.T) {
		l := NewLedger()
		require.NoError(t, l.Transfer(ctx, instruction(2)))
		require.NoError(t, l.Transfer(ctx, instruction(3)))

		assert.True(t, l.BalanceOf(recipient).Equal(decimal.NewFromInt(5)))
		assert.Len(t, l.Transfers(), 2)
	})

	t.Run("injected failure affects only the next transfer", func(t *testing.T) {
		l := NewLedger()
		l.FailNext(nil)

		err := l.Transfer(ctx, instruction(2))
		assert.ErrorIs(t, err, ErrRejected)
		assert.True(t, l.BalanceOf(recipient).IsZero())

		require.NoError(t, l.Transfer(ctx, instruction(2)))
		assert.True(t, l.BalanceOf(recipient).Equal(decimal.NewFromInt(2)))
	})

	t.Run("honours cancellation", func(t *testing.T) {
		l := NewLedger()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, l.Transfer(cancelled, instruction(1)), context.Canceled)
	})
}

type stubProducer struct {
	records []*kgo.Record
	err     error
}

func (s *stubProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	s.records = append(s.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: s.err})
	}
	return results
}

func TestKafkaTransferer(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes the instruction keyed by recipient", func(t *testing.T) {
		p := &stubProducer{}
		tr := NewKafkaTransferer(p, "payouts")

		require.NoError(t, tr.Transfer(ctx, instruction(4)))
		require.Len(t, p.records, 1)

		rec := p.records[0]
		assert.Equal(t, "payouts", rec.Topic)
		assert.Equal(t, recipient.String(), string(rec.Key))

		var decoded Instruction
		require.NoError(t, json.Unmarshal(rec.Value, &decoded))
		assert.Equal(t, "wd-1", decoded.Reference)
		assert.True(t, decoded.Amount.Equal(decimal.NewFromInt(4)))
	})

	t.Run("surfaces broker errors", func(t *testing.T) {
		brokerErr := errors.New("not enough replicas")
		tr := NewKafkaTransferer(&stubProducer{err: brokerErr}, "payouts")

		err := tr.Transfer(ctx, instruction(4))
		assert.ErrorIs(t, err, brokerErr)
		assert.False(t, OutcomeUnknown(err), "a broker answer is a definite refusal")
	})

	t.Run("marks unacknowledged produces as uncertain", func(t *testing.T) {
		for _, cause := range []error{kgo.ErrRecordTimeout, kgo.ErrRecordRetries, context.DeadlineExceeded} {
			tr := NewKafkaTransferer(&stubProducer{err: cause}, "payouts")

			err := tr.Transfer(ctx, instruction(4))
			assert.ErrorIs(t, err, cause)
			assert.True(t, OutcomeUnknown(err), "cause %v", cause)
		}
	})
}

func TestLedgerFailuresAreDefinite(t *testing.T) {
	l := NewLedger()
	l.FailNext(nil)

	assert.False(t, OutcomeUnknown(l.Transfer(context.Background(), instruction(1))))
}
