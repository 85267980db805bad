package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/database"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/domain"
	apperrors "github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/errors"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/logger"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/ratelimit"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/sanitize"
)

// maxImageBase64Bytes bounds the encoded image payload before any
// decoding work happens.
const maxImageBase64Bytes = 15 << 20

// envelope is the uniform response shape for both endpoints.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type analyzeRequest struct {
	ImageBase64 string `json:"image_base64"`
	MealType    string `json:"meal_type,omitempty"`
}

type chatRequest struct {
	Message string             `json:"message"`
	History []domain.ChatTurn  `json:"history"`
	Context domain.ChatContext `json:"context"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// handleAnalyzeFood runs the analysis pipeline: rate check, payload
// validation, meal type sanitization, model invocation. Each stage either
// advances or short-circuits into the uniform error envelope.
func (s *Server) handleAnalyzeFood(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	identity := GetIdentity(r.Context())

	decision := s.limiter.Check(r.Context(), identity.UserID, ratelimit.EndpointAnalysis)
	setRateLimitHeaders(w, decision)
	if !decision.Allowed {
		s.finish(w, r, start, ratelimit.EndpointAnalysis, apperrors.NewRateLimitError(decision.ResetInSeconds))
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.finish(w, r, start, ratelimit.EndpointAnalysis, apperrors.NewValidationError("Request body must be valid JSON"))
		return
	}
	if req.ImageBase64 == "" {
		s.finish(w, r, start, ratelimit.EndpointAnalysis, apperrors.NewValidationError("image_base64 is required"))
		return
	}
	if len(req.ImageBase64) > maxImageBase64Bytes {
		s.finish(w, r, start, ratelimit.EndpointAnalysis, apperrors.NewValidationError("Image is too large"))
		return
	}

	imageData, err := decodeImage(req.ImageBase64)
	if err != nil {
		s.finish(w, r, start, ratelimit.EndpointAnalysis, apperrors.NewValidationError("image_base64 is not valid base64 data"))
		return
	}

	mealType := sanitize.MealType(req.MealType)

	result, err := s.analysisService.Analyze(r.Context(), identity.UserID, imageData, mealType)
	if err != nil {
		s.finish(w, r, start, ratelimit.EndpointAnalysis, apperrors.Classify(err))
		return
	}

	s.record(identity.UserID, ratelimit.EndpointAnalysis, http.StatusOK, start, "")
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: result})
}

// handleChat runs the chat pipeline with the same stage sequence.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	identity := GetIdentity(r.Context())

	decision := s.limiter.Check(r.Context(), identity.UserID, ratelimit.EndpointChat)
	setRateLimitHeaders(w, decision)
	if !decision.Allowed {
		s.finish(w, r, start, ratelimit.EndpointChat, apperrors.NewRateLimitError(decision.ResetInSeconds))
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.finish(w, r, start, ratelimit.EndpointChat, apperrors.NewValidationError("Request body must be valid JSON"))
		return
	}

	message := sanitize.ChatMessage(req.Message)
	if message == "" {
		s.finish(w, r, start, ratelimit.EndpointChat, apperrors.NewValidationError("message is required"))
		return
	}

	reply, err := s.chatService.Reply(r.Context(), identity.UserID, message, req.History, req.Context)
	if err != nil {
		s.finish(w, r, start, ratelimit.EndpointChat, apperrors.Classify(err))
		return
	}

	s.record(identity.UserID, ratelimit.EndpointChat, http.StatusOK, start, "")
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: chatResponse{Reply: reply}})
}

// handleAnalyses returns the caller's stored analysis history. Reads are
// not rate limited; only the model-invoking endpoints consume quota.
func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	identity := GetIdentity(r.Context())

	analyses, err := s.analysisService.History(r.Context(), identity.UserID)
	if err != nil {
		s.finish(w, r, start, "history", apperrors.Classify(err))
		return
	}

	s.record(identity.UserID, "history", http.StatusOK, start, "")
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: analyses})
}

// handleHealthz reports liveness for load balancer probes.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// finish logs, meters and writes the error envelope for a failed stage.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, start time.Time, endpoint string, appErr *apperrors.AppError) {
	s.errorHandler.Handle(r.Context(), appErr)
	if identity := GetIdentity(r.Context()); identity != nil {
		s.record(identity.UserID, endpoint, appErr.HTTPStatus(), start, appErr.Code)
	}
	writeAppError(w, appErr)
}

// record meters one completed request.
func (s *Server) record(userID, endpoint string, status int, start time.Time, errorCode string) {
	s.usageService.Record(database.RequestLog{
		UserID:     userID,
		Endpoint:   endpoint,
		Status:     status,
		DurationMs: time.Since(start).Milliseconds(),
		Provider:   s.provider,
		ErrorCode:  errorCode,
	})
}

// decodeImage decodes a base64 image payload, tolerating an optional data
// URL prefix ("data:image/jpeg;base64,...") as sent by some clients.
func decodeImage(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx != -1 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
}

// setRateLimitHeaders mirrors the limiter decision into response headers.
func setRateLimitHeaders(w http.ResponseWriter, decision ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeAppError writes the uniform failure envelope. Only the sanitized
// user message crosses the boundary; internal error text never does.
func writeAppError(w http.ResponseWriter, appErr *apperrors.AppError) {
	if appErr.Type == apperrors.ErrorTypeRateLimit {
		w.Header().Set("Retry-After", strconv.Itoa(appErr.RetryAfter))
		w.Header().Set("X-RateLimit-Remaining", "0")
	}
	writeJSON(w, appErr.HTTPStatus(), envelope{Success: false, Error: appErr.UserMessage()})
}
