package worker

import (
	"testing"

	"github.com/quirkcart/quirkcart/internal/config"
)

func TestNewServiceRequiresQueueEnabled(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{Enabled: false}, &Consumer{}); err == nil {
		t.Fatalf("NewService should fail when the queue is disabled")
	}
	if _, err := NewService(nil, &Consumer{}); err == nil {
		t.Fatalf("NewService should fail on nil config")
	}
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	cfg := &config.QueueConfig{Enabled: true, Host: "127.0.0.1", Port: 6379}
	if _, err := NewService(cfg, nil); err == nil {
		t.Fatalf("NewService should fail on nil consumer")
	}
}
