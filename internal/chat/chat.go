// Package chat rebuilds AI chat transcripts from backend history records whose field
// names drift between responses.
package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultTitle = "Chat Session"
	SystemError  = "System Error: Unable to fetch financial data."
)

var (
	queryKeys  = []string{"query", "message", "prompt"}
	answerKeys = []string{"aiAnswer", "aIAnswer", "ai_answer", "answer", "response", "botResponse", "content"}
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	HTML    string `json:"html,omitempty"`
}

type Session struct {
	ConversationID string `json:"conversationId"`
	Title          string `json:"title"`
}

// Assemble emits a user message then an assistant message for every record, in record
// order. Records carrying neither a query nor an answer are skipped.
func Assemble(records []finance.Record) []Message {
	messages := make([]Message, 0, len(records)*2)
	for _, r := range records {
		if q := r.Str(queryKeys...); q != "" {
			messages = append(messages, Message{Role: RoleUser, Content: q})
		}
		if a := r.Str(answerKeys...); a != "" {
			messages = append(messages, Message{Role: RoleAssistant, Content: a})
		}
	}
	return messages
}

// Sessions lists one entry per conversation for a history sidebar. History arrives oldest
// first, so it is walked newest first and the first record seen for an id wins.
func Sessions(history []finance.Record) []Session {
	seen := make(map[string]bool)
	sessions := []Session{}
	for i := len(history) - 1; i >= 0; i-- {
		item := history[i]
		id := item.Str("conversationId")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		title := item.Str("query")
		if title == "" {
			title = DefaultTitle
		}
		sessions = append(sessions, Session{ConversationID: id, Title: title})
	}
	return sessions
}

// ExtractMessage unwraps a chat reply into display text. String replies may themselves
// hold JSON.
func ExtractMessage(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if t == "" || !json.Valid([]byte(t)) {
			return t
		}
		parsed, err := finance.DecodeBytes([]byte(t))
		if err != nil || parsed == nil {
			return t
		}
		if s, ok := parsed.(string); ok && s == t {
			return t
		}
		return ExtractMessage(parsed)
	case map[string]any:
		if s := finance.Record(t).Str("answer", "query", "message", "text"); s != "" {
			return s
		}
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	case finance.Record:
		return ExtractMessage(map[string]any(t))
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Reply extracts the answer text and the conversation id from a send response.
func Reply(v any) (answer, conversationID string) {
	if m, ok := v.(map[string]any); ok {
		r := finance.Record(m)
		conversationID = r.Str("conversationId")
		if a, ok := r.First("answer"); ok && a != "" {
			return ExtractMessage(a), conversationID
		}
	}
	return ExtractMessage(v), conversationID
}

var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RenderMarkdown converts assistant markdown to HTML. Raw HTML in the input is not passed
// through.
func RenderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return html.EscapeString(md)
	}
	return strings.TrimSpace(buf.String())
}
