package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	records := []finance.Record{
		{"query": "How much did I save?", "aiAnswer": "2249.50"},
		{"message": "Any debts?", "aIAnswer": "Two."},
		{"prompt": "Budget?", "ai_answer": "On track."},
		{"query": "", "answer": ""},
		{"botResponse": "Orphan answer"},
		{"query": "Unanswered"},
		{"query": "Content key", "content": "From content"},
	}

	got := Assemble(records)

	require.Equal(t, []Message{
		{Role: RoleUser, Content: "How much did I save?"},
		{Role: RoleAssistant, Content: "2249.50"},
		{Role: RoleUser, Content: "Any debts?"},
		{Role: RoleAssistant, Content: "Two."},
		{Role: RoleUser, Content: "Budget?"},
		{Role: RoleAssistant, Content: "On track."},
		{Role: RoleAssistant, Content: "Orphan answer"},
		{Role: RoleUser, Content: "Unanswered"},
		{Role: RoleUser, Content: "Content key"},
		{Role: RoleAssistant, Content: "From content"},
	}, got)
}

func TestAssembleAnswerKeyPriority(t *testing.T) {
	got := Assemble([]finance.Record{{"query": "q", "response": "second", "aiAnswer": "first"}})
	require.Equal(t, "first", got[1].Content)
}

func TestSessions(t *testing.T) {
	history := []finance.Record{
		{"conversationId": "c-1", "query": "First question"},
		{"conversationId": "c-2", "query": ""},
		{"conversationId": "c-1", "query": "Follow up"},
		{"query": "No conversation"},
		{"conversationId": json.Number("7"), "query": "Numeric id"},
	}

	got := Sessions(history)

	require.Equal(t, []Session{
		{ConversationID: "7", Title: "Numeric id"},
		{ConversationID: "c-1", Title: "Follow up"},
		{ConversationID: "c-2", Title: DefaultTitle},
	}, got)
}

func TestSessionsEmpty(t *testing.T) {
	require.Equal(t, []Session{}, Sessions(nil))
}

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"plain text", "hello there", "hello there"},
		{"json string", `{"answer":"from json"}`, "from json"},
		{"quoted json", `"quoted"`, "quoted"},
		{"number text", "2 apples", "2 apples"},
		{"object answer", map[string]any{"answer": "a"}, "a"},
		{"object text", map[string]any{"text": "t"}, "t"},
		{"object fallback", map[string]any{"other": "x"}, `{"other":"x"}`},
		{"number", json.Number("42"), "42"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExtractMessage(tt.in))
		})
	}
}

func TestRenderMarkdownEscapesRawHTML(t *testing.T) {
	out := RenderMarkdown("You saved **100**.\n<script>alert(1)</script>")
	require.Contains(t, out, "<strong>100</strong>")
	require.NotContains(t, out, "<script>")
}

type senderFunc func(ctx context.Context, query, conversationID string) (any, error)

func (f senderFunc) SendChat(ctx context.Context, query, conversationID string) (any, error) {
	return f(ctx, query, conversationID)
}

func TestConversationSendAdoptsID(t *testing.T) {
	var ids []string
	sender := senderFunc(func(ctx context.Context, query, conversationID string) (any, error) {
		ids = append(ids, conversationID)
		return map[string]any{"answer": "Reply to " + query, "conversationId": "c-9"}, nil
	})
	var c Conversation
	ctx := context.Background()

	reply, started, err := c.Send(ctx, sender, "  first  ")
	require.NoError(t, err)
	require.True(t, started)
	require.Equal(t, "Reply to first", reply.Content)
	require.Equal(t, "c-9", c.ID())

	_, started, err = c.Send(ctx, sender, "second")
	require.NoError(t, err)
	require.False(t, started)
	require.Equal(t, []string{"", "c-9"}, ids)
	require.Len(t, c.Messages(), 4)
}

func TestConversationSendFailure(t *testing.T) {
	boom := errors.New("503")
	sender := senderFunc(func(ctx context.Context, query, conversationID string) (any, error) {
		return nil, boom
	})
	var c Conversation

	reply, _, err := c.Send(context.Background(), sender, "hi")
	require.ErrorIs(t, err, boom)
	require.Equal(t, SystemError, reply.Content)
	require.Equal(t, []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: SystemError},
	}, c.Messages())
}

func TestConversationSendEmpty(t *testing.T) {
	var c Conversation
	_, _, err := c.Send(context.Background(), nil, "   ")
	require.True(t, appErrors.IsCode(err, appErrors.ErrInvalidInput))
	require.Empty(t, c.Messages())
}

func TestConversationOpenAndReset(t *testing.T) {
	var c Conversation
	msgs := c.Open("c-1", []finance.Record{{"query": "q", "answer": "a"}})
	require.Len(t, msgs, 2)
	require.Equal(t, "c-1", c.ID())

	c.Reset()
	require.Empty(t, c.ID())
	require.Empty(t, c.Messages())
}
