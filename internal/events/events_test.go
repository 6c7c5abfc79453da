package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: SaleRecorded}))
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "medstock.inventory", zap.NewNop())
	assert.Equal(t, "medstock.inventory", p.writer.Topic)
	assert.True(t, p.writer.Async)
	assert.NoError(t, p.Close())
}
