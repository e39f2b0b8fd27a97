package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/fatali-fataliyev/intelliwealth/logging"
)

type Sender interface {
	SendChat(ctx context.Context, query, conversationID string) (any, error)
}

// Conversation is the active transcript of one chat window.
type Conversation struct {
	mu       sync.Mutex
	id       string
	messages []Message
	sending  bool
}

func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Reset starts a fresh chat.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = ""
	c.messages = nil
}

// Open replaces the transcript with a stored conversation.
func (c *Conversation) Open(id string, records []finance.Record) []Message {
	messages := Assemble(records)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
	c.messages = messages
	return append([]Message(nil), messages...)
}

// Send appends the user message, asks the backend and appends its reply. A new chat adopts
// the conversation id the backend returns; started reports that. On failure a system error
// message is appended and the error returned.
func (c *Conversation) Send(ctx context.Context, s Sender, text string) (reply Message, started bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, false, appErrors.New(appErrors.ErrInvalidInput, "Message cannot be empty!")
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return Message{}, false, appErrors.New(appErrors.ErrConflict, "A message is already being sent.")
	}
	c.sending = true
	c.messages = append(c.messages, Message{Role: RoleUser, Content: text})
	id := c.id
	c.mu.Unlock()

	resp, sendErr := s.SendChat(ctx, text, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if sendErr != nil {
		logging.FromContext(ctx).Errorf("chat send failed: %v", sendErr)
		reply = Message{Role: RoleAssistant, Content: SystemError}
		c.messages = append(c.messages, reply)
		return reply, false, fmt.Errorf("failed to send chat message: %w", sendErr)
	}

	answer, returnedID := Reply(resp)
	if c.id == "" && returnedID != "" {
		c.id = returnedID
		started = true
	}
	reply = Message{Role: RoleAssistant, Content: answer, HTML: RenderMarkdown(answer)}
	c.messages = append(c.messages, reply)
	return reply, started, nil
}
