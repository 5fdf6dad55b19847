package console

import (
	"slices"
	"sync"
)

// Dialog describes a confirmation or input dialog opened by a toolbar action.
// Params carry the values the dialog is prefilled with.
type Dialog struct {
	Kind   string         `json:"kind"`
	Title  string         `json:"title"`
	Params map[string]any `json:"params,omitempty"`
}

// Notifier receives the dialogs and messages a view produces.
type Notifier interface {
	ShowDialog(d Dialog)
	ShowMessage(text string)
}

// Inbox is a Notifier that buffers the pending dialog and the messages not
// yet delivered. It is safe for concurrent use.
type Inbox struct {
	mu       sync.Mutex
	dialog   *Dialog
	messages []string
}

var _ Notifier = (*Inbox)(nil)

// ShowDialog replaces the pending dialog.
func (b *Inbox) ShowDialog(d Dialog) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialog = &d
}

// ShowMessage queues a message.
func (b *Inbox) ShowMessage(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, text)
}

// Pending returns a copy of the open dialog, or nil.
func (b *Inbox) Pending() *Dialog {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dialog == nil {
		return nil
	}
	d := *b.dialog
	return &d
}

// CloseDialog discards the pending dialog.
func (b *Inbox) CloseDialog() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialog = nil
}

// Drain returns the queued messages in order and empties the queue.
func (b *Inbox) Drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := slices.Clone(b.messages)
	b.messages = b.messages[:0]
	return out
}
