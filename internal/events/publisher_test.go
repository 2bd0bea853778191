package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"go.uber.org/zap/zaptest"
)

func TestKafkaPublisher_PublishOrderFulfilled(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	p := &KafkaPublisher{producer: mp, topic: "orders.fulfilled", logger: zaptest.NewLogger(t)}

	ev := OrderFulfilled{
		OrderID:     "ord-1",
		UserID:      "usr-1",
		TotalAmount: 1416,
		Units:       2,
		FulfilledAt: time.Now().UTC(),
	}

	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got OrderFulfilled
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.OrderID != ev.OrderID || got.Units != 2 {
			return errors.New("payload mismatch")
		}
		return nil
	})

	if err := p.PublishOrderFulfilled(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKafkaPublisher_BrokerError(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	p := &KafkaPublisher{producer: mp, topic: "orders.fulfilled", logger: zaptest.NewLogger(t)}

	mp.ExpectSendMessageAndFail(errors.New("broker down"))

	if err := p.PublishOrderFulfilled(context.Background(), OrderFulfilled{OrderID: "ord-1"}); err == nil {
		t.Fatalf("want broker error surfaced")
	}
	_ = p.Close()
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.PublishOrderFulfilled(context.Background(), OrderFulfilled{}); err != nil {
		t.Fatalf("nop publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("nop close: %v", err)
	}
}
