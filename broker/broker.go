package broker

import (
	"sync"

	"github.com/inflaxprotocol/inflax/events"
	"github.com/inflaxprotocol/inflax/logging"
)

// Subscriber receives events of the types it declares an interest in. A
// subscriber registered for events.All receives everything.
//go:generate go run github.com/golang/mock/mockgen -destination mocks/subscriber_mock.go -package mocks github.com/inflaxprotocol/inflax/broker Subscriber
type Subscriber interface {
	Push(evts ...events.Event)
	Types() []events.Type
}

type subscription struct {
	Subscriber
	id int
}

// Broker is an in-process event bus, engines send events to it and it fans
// them out synchronously to the registered subscribers.
type Broker struct {
	log *logging.Logger
	cfg Config

	mu    sync.Mutex
	tSubs map[events.Type]map[int]*subscription
	subs  map[int]*subscription
	seq   int
}

// New creates a new broker.
func New(log *logging.Logger, cfg Config) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Broker{
		log:   log,
		cfg:   cfg,
		tSubs: map[events.Type]map[int]*subscription{},
		subs:  map[int]*subscription{},
	}
}

// ReloadConf updates the internal configuration.
func (b *Broker) ReloadConf(cfg Config) {
	b.log.Info("reloading configuration")
	if b.log.GetLevel() != cfg.Level.Get() {
		b.log.Info("updating log level",
			logging.String("old", b.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		b.log.SetLevel(cfg.Level.Get())
	}

	b.cfg = cfg
}

// Subscribe registers a subscriber for the event types it declares,
// returning the key to unsubscribe with.
func (b *Broker) Subscribe(s Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	sub := &subscription{Subscriber: s, id: b.seq}
	b.subs[sub.id] = sub
	for _, t := range s.Types() {
		if _, ok := b.tSubs[t]; !ok {
			b.tSubs[t] = map[int]*subscription{}
		}
		b.tSubs[t][sub.id] = sub
	}
	return sub.id
}

// Unsubscribe removes a subscriber, a no-op for unknown keys.
func (b *Broker) Unsubscribe(k int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[k]
	if !ok {
		return
	}
	for _, t := range sub.Types() {
		delete(b.tSubs[t], k)
	}
	delete(b.subs, k)
}

// Send delivers a single event to all interested subscribers.
func (b *Broker) Send(event events.Event) {
	b.SendBatch([]events.Event{event})
}

// SendBatch delivers a batch of events to all interested subscribers.
func (b *Broker) SendBatch(evts []events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, evt := range evts {
		if b.log.GetLevel() == logging.DebugLevel {
			b.log.Debug("sending event",
				logging.String("type", evt.Type().String()),
				logging.String("trace-id", evt.TraceID()),
			)
		}
		for _, sub := range b.tSubs[evt.Type()] {
			sub.Push(evt)
		}
		for _, sub := range b.tSubs[events.All] {
			sub.Push(evt)
		}
	}
}
