package testutil

import (
	"context"
	"sync"
)

const (
	KindVerification  = "verification"
	KindPasswordReset = "password-reset"
)

type SentMail struct {
	Kind  string
	Email string
	Name  string
	Token string
}

// Notifier records every email instead of sending it. Set Err to make
// every send fail.
type Notifier struct {
	mu   sync.Mutex
	Err  error
	sent []SentMail
}

func (n *Notifier) SendVerification(_ context.Context, email string, name string, token string) error {
	return n.record(SentMail{Kind: KindVerification, Email: email, Name: name, Token: token})
}

func (n *Notifier) SendPasswordReset(_ context.Context, email string, name string, token string) error {
	return n.record(SentMail{Kind: KindPasswordReset, Email: email, Name: name, Token: token})
}

func (n *Notifier) record(m SentMail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, m)
	return nil
}

func (n *Notifier) Sent() []SentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentMail(nil), n.sent...)
}

// Last returns the most recent email of kind, if any.
func (n *Notifier) Last(kind string) (SentMail, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Kind == kind {
			return n.sent[i], true
		}
	}
	return SentMail{}, false
}
