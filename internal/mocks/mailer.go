package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/phloxxx/user-management-system/internal/mail"
)

// Mailer is a testify mock of mail.Mailer that also records delivered
// messages for inspection after a Dispatcher has drained.
type Mailer struct {
	mock.Mock

	mu   sync.Mutex
	sent []mail.Message
}

func (m *Mailer) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	if err := args.Error(0); err != nil {
		return err
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

func (m *Mailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.sent))
	copy(out, m.sent)
	return out
}
