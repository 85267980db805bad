// Package ai talks to the external generative model providers and parses
// their output into validated domain types.
package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/config"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/domain"
)

const (
	geminiModel       = "gemini-1.5-flash"
	openaiVisionModel = openai.GPT4VisionPreview
	openaiChatModel   = openai.GPT4TurboPreview

	// Generation parameters are fixed per use case: low temperature and a
	// bounded output length favor deterministic, parseable output.
	analysisTemperature = 0.2
	analysisMaxTokens   = 1024
	chatTemperature     = 0.4
	chatMaxTokens       = 800
)

// Service sends structured requests to the configured model provider.
type Service struct {
	provider     string
	geminiClient *genai.Client
	openaiClient *openai.Client
}

// NewService creates clients for the configured provider. Both clients are
// created when both keys are present so the provider can be switched
// without a restart-time failure.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	s := &Service{provider: cfg.Provider}

	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
	}
	if cfg.OpenAIAPIKey != "" {
		s.openaiClient = openai.NewClient(cfg.OpenAIAPIKey)
	}

	if s.provider == "gemini" && s.geminiClient == nil {
		return nil, fmt.Errorf("gemini provider selected but no API key configured")
	}
	if s.provider == "openai" && s.openaiClient == nil {
		return nil, fmt.Errorf("openai provider selected but no API key configured")
	}
	return s, nil
}

// Provider returns the active provider name ("gemini" or "openai").
func (s *Service) Provider() string {
	return s.provider
}

// Close releases provider client resources.
func (s *Service) Close() error {
	if s.geminiClient != nil {
		return s.geminiClient.Close()
	}
	return nil
}

// AnalyzeFoodImage sends the image and instructions to the model and
// returns the validated analysis. mealType must already be sanitized; an
// empty value means no hint is embedded into the prompt.
func (s *Service) AnalyzeFoodImage(ctx context.Context, imageData []byte, mealType string) (*domain.AnalysisResult, error) {
	prompt := analysisPrompt(mealType)

	var raw string
	var err error
	if s.provider == "openai" {
		raw, err = s.analyzeWithOpenAI(ctx, imageData, prompt)
	} else {
		raw, err = s.analyzeWithGemini(ctx, imageData, prompt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return ParseAnalysis(raw)
}

// Chat sends one conversational turn with its history and profile context
// and returns the assistant's reply text.
func (s *Service) Chat(ctx context.Context, message string, history []domain.ChatTurn, profile domain.ChatContext) (string, error) {
	if s.provider == "openai" {
		return s.chatWithOpenAI(ctx, message, history, profile)
	}
	return s.chatWithGemini(ctx, message, history, profile)
}

func (s *Service) analyzeWithGemini(ctx context.Context, imageData []byte, prompt string) (string, error) {
	model := s.geminiClient.GenerativeModel(geminiModel)
	model.SetTemperature(analysisTemperature)
	model.SetMaxOutputTokens(analysisMaxTokens)

	img := genai.ImageData("jpeg", imageData)
	resp, err := model.GenerateContent(ctx, img, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return textFromGemini(resp)
}

func (s *Service) chatWithGemini(ctx context.Context, message string, history []domain.ChatTurn, profile domain.ChatContext) (string, error) {
	model := s.geminiClient.GenerativeModel(geminiModel)
	model.SetTemperature(chatTemperature)
	model.SetMaxOutputTokens(chatMaxTokens)

	cs := model.StartChat()
	cs.History = []*genai.Content{
		{Role: "user", Parts: []genai.Part{genai.Text(chatSystemPrompt(profile))}},
		{Role: "model", Parts: []genai.Part{genai.Text("Understood. I'm ready to help with nutrition questions.")}},
	}
	for _, turn := range history {
		role := "user"
		if turn.Role == domain.RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return textFromGemini(resp)
}

func (s *Service) analyzeWithOpenAI(ctx context.Context, imageData []byte, prompt string) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData)

	resp, err := s.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openaiVisionModel,
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *Service) chatWithOpenAI(ctx context.Context, message string, history []domain.ChatTurn, profile domain.ChatContext) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt(profile)},
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := s.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openaiChatModel,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

// textFromGemini flattens the first candidate's text parts.
func textFromGemini(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text in model response")
	}
	return sb.String(), nil
}
