package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	msgFeedbackSent  = "Feedback sent"
	msgFeedbackError = "Error sending feedback"
)

type toastKind int

const (
	toastSuccess toastKind = iota
	toastError
)

type toast struct {
	id      int
	kind    toastKind
	message string
}

// toasts is the notification stack drawn above the status bar. Each toast
// removes itself after ttl.
type toasts struct {
	ttl    time.Duration
	nextID int
	items  []toast
}

func newToasts(ttl time.Duration) *toasts {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return &toasts{ttl: ttl}
}

func (t *toasts) show(kind toastKind, message string) tea.Cmd {
	t.nextID++
	t.items = append(t.items, toast{id: t.nextID, kind: kind, message: message})
	return expireToast(t.nextID, t.ttl)
}

func (t *toasts) ShowSuccessToast(message string) tea.Cmd {
	return t.show(toastSuccess, message)
}

func (t *toasts) ShowErrorToast(message string) tea.Cmd {
	return t.show(toastError, message)
}

func (t *toasts) expire(id int) {
	for i, item := range t.items {
		if item.id == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return
		}
	}
}

func (t *toasts) count(kind toastKind) int {
	n := 0
	for _, item := range t.items {
		if item.kind == kind {
			n++
		}
	}
	return n
}
