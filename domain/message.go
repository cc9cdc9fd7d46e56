// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind int

const (
	Public Kind = iota
	Private
	System
)

func (k Kind) String() string {
	switch k {
	case Public:
		return "public"
	case Private:
		return "private"
	case System:
		return "system"
	default:
		return "unknown"
	}
}

// Message represents an immutable chat event.
// Recipient is set if and only if Kind is Private.
type Message struct {
	ID        uuid.UUID
	Sender    string
	Kind      Kind
	Recipient string
	Body      string
	CreatedAt time.Time
}

func NewPublic(sender, body string) Message {
	return Message{
		ID:        uuid.New(),
		Sender:    sender,
		Kind:      Public,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}

func NewPrivate(sender, recipient, body string) Message {
	return Message{
		ID:        uuid.New(),
		Sender:    sender,
		Kind:      Private,
		Recipient: recipient,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}

// NewSystem builds a server-generated informational or error line.
// System messages are rendered to a single target and never persisted.
func NewSystem(body string) Message {
	return Message{
		ID:        uuid.New(),
		Kind:      System,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}

const renderTimeLayout = "2006-01-02 15:04:05"

// Render produces the wire line shown in the terminal.
func (m Message) Render() string {
	switch m.Kind {
	case Private:
		return fmt.Sprintf("[%s][private from %s to %s]: %s",
			m.CreatedAt.Format(renderTimeLayout), m.Sender, m.Recipient, m.Body)
	case System:
		return m.Body
	default:
		return fmt.Sprintf("[%s][%s]: %s",
			m.CreatedAt.Format(renderTimeLayout), m.Sender, m.Body)
	}
}
