// Package notify delivers price alert notifications to a pluggable
// surface, spacing them out so a burst of breaches does not flood the
// user.
package notify

import (
	"context"
	"log"
)

// Notification is one user-visible message.
type Notification struct {
	Title          string
	Message        string
	ContextMessage string
	IconURL        string
}

// Notifier is the delivery surface. Show returns an opaque id usable
// with Clear.
type Notifier interface {
	Show(ctx context.Context, n Notification) (string, error)
	GetAll(ctx context.Context) ([]string, error)
	Clear(ctx context.Context, id string) error
}

// ClearAll removes every notification the surface currently tracks.
func ClearAll(ctx context.Context, n Notifier) error {
	ids, err := n.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := n.Clear(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// LogNotifier writes notifications to the process log. It is the default
// surface for the server and the CLI.
type LogNotifier struct{}

func (LogNotifier) Show(_ context.Context, n Notification) (string, error) {
	log.Printf("notify: %s: %s", n.Title, n.Message)
	return "", nil
}

func (LogNotifier) GetAll(context.Context) ([]string, error) { return nil, nil }

func (LogNotifier) Clear(context.Context, string) error { return nil }
