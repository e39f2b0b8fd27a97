package dashboard

import (
	"context"
	"fmt"

	"github.com/fatali-fataliyev/intelliwealth/internal/chat"
	"github.com/fatali-fataliyev/intelliwealth/internal/view"
)

const MsgHistoryFailed = "Failed to load history"

type ChatView struct {
	ConversationID string              `json:"conversationId"`
	Reply          chat.Message        `json:"reply"`
	Messages       []chat.Message      `json:"messages"`
	Sessions       []chat.Session      `json:"sessions,omitempty"`
	Notifications  []view.Notification `json:"notifications,omitempty"`
}

// SendChat sends text in the session's active conversation. The first reply of a new chat
// carries its conversation id, after which the history sidebar is reloaded.
func (s *Service) SendChat(ctx context.Context, sessionID, text string) (ChatView, error) {
	conv := &s.Workspace(sessionID).chat
	reply, started, err := conv.Send(ctx, s.backend, text)
	v := ChatView{
		ConversationID: conv.ID(),
		Reply:          reply,
		Messages:       conv.Messages(),
	}
	if err != nil {
		return v, err
	}
	if started {
		sessions, err := s.ChatSessions(ctx)
		if err != nil {
			v.Notifications = []view.Notification{{Level: view.LevelError, Message: MsgHistoryFailed}}
		}
		v.Sessions = sessions
	}
	return v, nil
}

// ChatSessions lists past conversations, newest first.
func (s *Service) ChatSessions(ctx context.Context) ([]chat.Session, error) {
	history, err := s.backend.ChatHistory(ctx)
	if err != nil {
		return []chat.Session{}, fmt.Errorf("failed to load chat history: %w", err)
	}
	return chat.Sessions(history), nil
}

// OpenConversation makes a stored conversation the active one of the session.
func (s *Service) OpenConversation(ctx context.Context, sessionID, id string) (ChatView, error) {
	records, err := s.backend.Conversation(ctx, id)
	if err != nil {
		return ChatView{ConversationID: id, Messages: []chat.Message{}}, fmt.Errorf("failed to load conversation: %w", err)
	}
	messages := s.Workspace(sessionID).chat.Open(id, records)
	for i, m := range messages {
		if m.Role == chat.RoleAssistant {
			messages[i].HTML = chat.RenderMarkdown(m.Content)
		}
	}
	return ChatView{ConversationID: id, Messages: messages}, nil
}

// NewChat clears the active conversation of the session.
func (s *Service) NewChat(sessionID string) {
	s.Workspace(sessionID).chat.Reset()
}
