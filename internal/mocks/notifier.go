package mocks

import (
	"regexp"
	"sync"

	"github.com/phloxxx/user-management-system/internal/mail"
)

var codeToken = regexp.MustCompile(`<code>([0-9a-f]+)</code>`)

// Inbox is a synchronous notifier that keeps every dispatched message.
type Inbox struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (i *Inbox) Dispatch(msg mail.Message) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, msg)
}

func (i *Inbox) Messages() []mail.Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]mail.Message(nil), i.msgs...)
}

// LastToken extracts the token from the newest message addressed to to.
// It returns "" when there is none.
func (i *Inbox) LastToken(to string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	for k := len(i.msgs) - 1; k >= 0; k-- {
		if i.msgs[k].To != to {
			continue
		}
		if m := codeToken.FindStringSubmatch(i.msgs[k].HTML); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}
