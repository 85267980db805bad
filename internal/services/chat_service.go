package services

import (
	"context"
	"fmt"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/ai"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/domain"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/sanitize"
)

// maxHistoryTurns bounds the conversation context accepted from the
// client so prompt size cannot grow without limit. Older turns are
// dropped first; the most recent exchange matters most for a reply.
const maxHistoryTurns = 20

// ChatService answers conversational nutrition questions.
type ChatService struct {
	aiService *ai.Service
}

// NewChatService creates the chat service.
func NewChatService(aiService *ai.Service) *ChatService {
	return &ChatService{aiService: aiService}
}

// Reply generates the assistant's answer for one user message. The
// history is read-only context from the client: turns with unknown roles
// are dropped, content is defanged before prompt embedding, and only the
// most recent turns are kept.
func (s *ChatService) Reply(ctx context.Context, userID string, message string, history []domain.ChatTurn, profile domain.ChatContext) (string, error) {
	trimmed := prepareHistory(history)

	reply, err := s.aiService.Chat(ctx, message, trimmed, prepareProfile(profile))
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}
	return reply, nil
}

// prepareHistory filters and bounds client-supplied conversation context.
func prepareHistory(history []domain.ChatTurn) []domain.ChatTurn {
	var cleaned []domain.ChatTurn
	for _, turn := range history {
		if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
			continue
		}
		content := sanitize.ChatMessage(turn.Content)
		if content == "" {
			continue
		}
		cleaned = append(cleaned, domain.ChatTurn{Role: turn.Role, Content: content})
	}

	if len(cleaned) > maxHistoryTurns {
		cleaned = cleaned[len(cleaned)-maxHistoryTurns:]
	}
	return cleaned
}

// prepareProfile defangs client-supplied profile fields before they are
// embedded into the system prompt.
func prepareProfile(profile domain.ChatContext) domain.ChatContext {
	profile.Goal = sanitize.Defang(profile.Goal, sanitize.MaxFieldLength)

	var restrictions []string
	for _, r := range profile.Restrictions {
		if cleaned := sanitize.Defang(r, sanitize.MaxFieldLength); cleaned != "" {
			restrictions = append(restrictions, cleaned)
		}
	}
	profile.Restrictions = restrictions
	return profile
}
