package usecase

import (
	"context"
	"sync/atomic"

	"github.com/modsentry/modsentry/domains/moderation"
	"github.com/sirupsen/logrus"
)

// Pipeline is the ordered, single-consumer queue between the transport event
// handler and the router. One message is handled to completion, including
// its instruction batch, before the next one starts.
type Pipeline struct {
	queue   chan *moderation.InboundMessage
	router  *Router
	done    chan struct{}
	dropped atomic.Uint64
}

func NewPipeline(queueSize int, router *Router) *Pipeline {
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Pipeline{
		queue:  make(chan *moderation.InboundMessage, queueSize),
		router: router,
		done:   make(chan struct{}),
	}
}

// Start launches the consumer goroutine.
func (p *Pipeline) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-p.queue:
				p.handle(ctx, msg)
			}
		}
	}()
}

// Enqueue hands a message to the consumer without blocking the transport
// callback. A full queue drops the message with a warning; blocking here
// would stall the event handler that also delivers lifecycle signals.
func (p *Pipeline) Enqueue(msg *moderation.InboundMessage) {
	select {
	case p.queue <- msg:
	default:
		total := p.dropped.Add(1)
		logrus.Warnf("[PIPELINE] queue full, dropping message %s (%d dropped so far)", msg.Key.ID, total)
	}
}

// Dropped returns how many messages the overload valve has discarded.
func (p *Pipeline) Dropped() uint64 {
	return p.dropped.Load()
}

// Wait blocks until the consumer goroutine has exited.
func (p *Pipeline) Wait() {
	<-p.done
}

func (p *Pipeline) handle(ctx context.Context, msg *moderation.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[PIPELINE] recovered from handler panic: %v", r)
		}
	}()
	p.router.Handle(ctx, msg)
}
