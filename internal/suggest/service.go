package suggest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jalal1808/Postify-backend/internal/shared/apperr"

	"github.com/redis/go-redis/v9"
)

const model = "models/gemini-2.5-flash-preview-05-20"

const promptTemplate = "Suggest 5 catchy, numbered blog titles for this content. " +
	"Respond with just the numbered list and no extra text. " +
	"If you cannot generate titles, respond with 'no-titles-generated':\n\n%s"

// Service calls a Gemini-style generateContent endpoint to propose post
// titles. Upstream trouble never takes a request down with it: a blocked
// or empty generation reads as zero suggestions, and transport or payload
// failures surface as a 502-mapped upstream error. Successful suggestion
// lists are cached in redis keyed by a hash of the content.
type Service struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	redis      *redis.Client
	cacheTTL   time.Duration
}

func NewService(apiKey, baseURL string, timeout, cacheTTL time.Duration, redisClient *redis.Client) *Service {
	return &Service{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		redis:      redisClient,
		cacheTTL:   cacheTTL,
	}
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content      *requestContent `json:"content"`
	FinishReason string          `json:"finishReason"`
}

func (s *Service) Suggest(ctx context.Context, content string) ([]string, error) {
	if cached, ok := s.fromCache(ctx, content); ok {
		return cached, nil
	}

	body, err := json.Marshal(generateRequest{
		Contents: []requestContent{{Parts: []part{{Text: fmt.Sprintf(promptTemplate, content)}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.5,
			ResponseMimeType: "text/plain",
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", s.baseURL, model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("title suggestion request failed: %w", apperr.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("title suggestion upstream returned %d: %w", resp.StatusCode, apperr.ErrUpstream)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("title suggestion payload unreadable: %w", apperr.ErrUpstream)
	}

	suggestions := extractSuggestions(parsed)
	if len(suggestions) > 0 {
		s.toCache(ctx, content, suggestions)
	}
	return suggestions, nil
}

// extractSuggestions turns a generation into a flat title list. An empty
// or safety-blocked generation is a valid outcome with zero titles.
func extractSuggestions(resp generateResponse) []string {
	if len(resp.Candidates) == 0 {
		return []string{}
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return []string{}
	}

	text := cand.Content.Parts[0].Text
	if strings.Contains(strings.ToLower(text), "no-titles-generated") {
		return []string{}
	}

	suggestions := []string{}
	for _, line := range strings.Split(text, "\n") {
		title := strings.Trim(line, " -0123456789.")
		if title != "" {
			suggestions = append(suggestions, title)
		}
	}
	return suggestions
}

func cacheKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "suggest:" + hex.EncodeToString(sum[:])
}

func (s *Service) fromCache(ctx context.Context, content string) ([]string, bool) {
	if s.redis == nil {
		return nil, false
	}
	raw, err := s.redis.Get(ctx, cacheKey(content)).Result()
	if err != nil {
		return nil, false
	}
	var suggestions []string
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil {
		return nil, false
	}
	return suggestions, true
}

func (s *Service) toCache(ctx context.Context, content string, suggestions []string) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey(content), raw, s.cacheTTL).Err(); err != nil {
		log.Printf("suggestion cache write error: %v", err)
	}
}
