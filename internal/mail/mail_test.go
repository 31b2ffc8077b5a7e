package mail_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/phloxxx/user-management-system/internal/mail"
	"github.com/phloxxx/user-management-system/internal/mocks"
)

func TestDispatcherDeliversInBackground(t *testing.T) {
	m := new(mocks.Mailer)
	m.On("Send", mock.Anything, mock.AnythingOfType("mail.Message")).Return(nil)

	d := mail.NewDispatcher(m, zap.NewNop())
	d.Dispatch(mail.VerificationEmail("a@example.com", "abc123", ""))
	d.Dispatch(mail.PasswordResetEmail("b@example.com", "def456", "http://app.test"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))

	sent := m.Sent()
	require.Len(t, sent, 2)
	m.AssertNumberOfCalls(t, "Send", 2)
}

func TestDispatcherLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	m := new(mocks.Mailer)
	m.On("Send", mock.Anything, mock.Anything).Return(errors.New("relay down"))

	d := mail.NewDispatcher(m, zap.New(core))
	d.Dispatch(mail.AlreadyRegisteredEmail("a@example.com", ""))
	require.NoError(t, d.Wait(context.Background()))

	assert.Empty(t, m.Sent())
	entries := logs.FilterMessage("email dispatch failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a@example.com", entries[0].ContextMap()["to"])
}

func TestDispatcherWaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	m := new(mocks.Mailer)
	m.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) { <-release }).Return(nil)

	d := mail.NewDispatcher(m, zap.NewNop())
	d.Dispatch(mail.VerificationEmail("a@example.com", "tok", ""))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, d.Wait(context.Background()))
}

func TestTemplates(t *testing.T) {
	withOrigin := mail.VerificationEmail("a@example.com", "abc123", "http://app.test")
	assert.Equal(t, "a@example.com", withOrigin.To)
	assert.Contains(t, withOrigin.HTML, "http://app.test/account/verify-email?token=abc123")

	withoutOrigin := mail.VerificationEmail("a@example.com", "abc123", "")
	assert.Contains(t, withoutOrigin.HTML, "<code>abc123</code>")
	assert.NotContains(t, withoutOrigin.HTML, "href")

	reset := mail.PasswordResetEmail("a@example.com", "r3s3t", "http://app.test")
	assert.Contains(t, reset.HTML, "http://app.test/account/reset-password?token=r3s3t")

	registered := mail.AlreadyRegisteredEmail("a<b>@example.com", "")
	assert.Contains(t, registered.HTML, "a&lt;b&gt;@example.com")
}

func TestLogMailerNeverFails(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	err := mail.NewLogMailer(zap.New(core)).Send(context.Background(), mail.VerificationEmail("a@example.com", "t", ""))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
}
