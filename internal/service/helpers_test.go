package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/product_catalog/internal/repo"
	"github.com/Skotchmaster/product_catalog/internal/testutil"
	"github.com/Skotchmaster/product_catalog/internal/tokens"
)

var testSecret = []byte("test-jwt-secret")

type published struct {
	Topic string
	Key   string
	Event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Key: key, Event: event})
	return p.err
}

func (p *recordingPublisher) Events() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]published, len(p.events))
	copy(out, p.events)
	return out
}

func newTestAuthService(t *testing.T) (*AuthService, *recordingPublisher) {
	t.Helper()

	pub := &recordingPublisher{}
	return &AuthService{
		Repo:   repo.New(testutil.OpenDB(t)),
		Tokens: tokens.NewIssuer(testSecret, time.Hour),
		Events: pub,
	}, pub
}
