// Package notify delivers level-crossing alerts to external channels.
package notify

import (
	"context"
	"errors"
	"log"
	"time"
)

// Direction of a price move through a level.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Alert is one manual level crossed by the market price.
type Alert struct {
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Level     float64   `json:"level"`
	Price     float64   `json:"price"`
	Direction Direction `json:"direction"`
	LevelID   string    `json:"levelId"`
	At        time.Time `json:"ts"`
}

// Notifier delivers an alert.
type Notifier interface {
	Send(ctx context.Context, a Alert) error
}

// LogNotifier writes alerts to the log.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, a Alert) error {
	log.Printf("[notify] %s", a.Text())
	return nil
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, a Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
