package mail

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const sendTimeout = 30 * time.Second

// Dispatcher sends mail in the background. Failures are logged and never
// reach the caller.
type Dispatcher struct {
	mailer Mailer
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(mailer Mailer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{mailer: mailer, logger: logger}
}

// Dispatch queues msg and returns immediately.
func (d *Dispatcher) Dispatch(msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := d.mailer.Send(ctx, msg); err != nil {
			d.logger.Error("email dispatch failed",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
			return
		}
		d.logger.Debug("email dispatched", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	}()
}

// Wait blocks until in-flight sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
