package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultGeminiModel    = "gemini-2.5-flash"
)

var (
	// ErrLLMNotConfigured aucune clé API n'est configurée
	ErrLLMNotConfigured = errors.New("llm api key not configured")

	// ErrLLMEmptyResponse le modèle n'a retourné aucun texte
	ErrLLMEmptyResponse = errors.New("llm returned empty response")
)

// Rôles d'un tour de conversation
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn un message de la conversation
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// LLMRequest requête de génération
type LLMRequest struct {
	System string
	Turns  []Turn
	// JSON demande une réponse application/json
	JSON bool
}

// GeminiClient appelle l'API REST generateContent de Gemini
type GeminiClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewGeminiClient crée un client. model et endpoint vides = valeurs par défaut.
func NewGeminiClient(apiKey, model, endpoint string, timeout time.Duration) *GeminiClient {
	if model == "" {
		model = defaultGeminiModel
	}
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Generate envoie la conversation et retourne le texte du premier candidat
func (g *GeminiClient) Generate(ctx context.Context, req LLMRequest) (string, error) {
	if g.apiKey == "" {
		return "", ErrLLMNotConfigured
	}

	body := geminiRequest{}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	for _, t := range req.Turns {
		body.Contents = append(body.Contents, geminiContent{
			Role:  t.Role,
			Parts: []geminiPart{{Text: t.Text}},
		})
	}
	if req.JSON {
		body.GenerationConfig = &geminiGenerationConfig{ResponseMimeType: "application/json"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", eris.Wrap(err, "encode gemini request")
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.endpoint, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "build gemini request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", eris.Wrap(err, "gemini request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "read gemini response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("gemini API returned %d: %s", resp.StatusCode, Truncate(string(raw), 200))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", eris.Wrap(err, "parse gemini response")
	}
	if parsed.Error != nil {
		return "", eris.Errorf("gemini error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", ErrLLMEmptyResponse
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// Truncate coupe s à maxLen octets
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
