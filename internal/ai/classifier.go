package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bughive/triage-backend/model"
)

const classifierSystemPrompt = `You are a security triage assistant for a bug-bounty program.
Classify the vulnerability report you are given.

Bug type taxonomy (pick the closest): XSS, SQL Injection, CSRF,
Authentication Bypass, Authorization, Session Management, Cryptography, RCE,
LFI/RFI, SSRF, Information Disclosure, Denial of Service, Network Security,
Configuration, Business Logic, Unknown.

Severity rubric:
- CRITICAL: remote code execution, authentication bypass, full system or data breach
- HIGH: privilege escalation, sensitive data exposure
- MEDIUM: information disclosure, denial of service
- LOW: cosmetic or minor issues

Respond with a single JSON object and nothing else:
{
  "bug_type": string,
  "severity": "LOW"|"MEDIUM"|"HIGH"|"CRITICAL",
  "affected_system": string,
  "confidence": number between 0 and 1,
  "summary": string,
  "technical_details": [string],
  "suggested_team": string
}`

// Classifier produces a structured judgement for a report. It never fails the
// caller: any transport, parsing or schema failure substitutes the keyword
// fallback result.
type Classifier struct {
	client chatClient
	model  string
	log    *zap.SugaredLogger
}

// NewClassifier creates a classifier backed by the given OpenAI client.
func NewClassifier(client chatClient, chatModel string, log *zap.SugaredLogger) *Classifier {
	return &Classifier{
		client: client,
		model:  chatModel,
		log:    log,
	}
}

// Classify returns a fully-populated classification for the report text.
func (c *Classifier) Classify(ctx context.Context, title, description, affectedSystem string) model.ClassificationResult {
	result, err := c.classifyRemote(ctx, title, description, affectedSystem)
	if err != nil {
		// Expected outcome under API outage, not an error path.
		c.log.Warnw("classification call failed, using keyword fallback", "error", err)
		return FallbackClassification(title, description, affectedSystem)
	}
	return result
}

func (c *Classifier) classifyRemote(ctx context.Context, title, description, affectedSystem string) (model.ClassificationResult, error) {
	userPrompt := fmt.Sprintf("Title: %s\n\nDescription:\n%s\n\nAffected system: %s",
		title, description, affectedSystem)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.ClassificationResult{}, fmt.Errorf("chat completion returned no choices")
	}

	return parseClassification(resp.Choices[0].Message.Content)
}

// parseClassification decodes and schema-validates the model output. Any
// violation is an error so the caller falls back.
func parseClassification(content string) (model.ClassificationResult, error) {
	var result model.ClassificationResult
	decoder := json.NewDecoder(strings.NewReader(content))
	if err := decoder.Decode(&result); err != nil {
		return model.ClassificationResult{}, fmt.Errorf("failed to decode classification JSON: %w", err)
	}

	if result.BugType == "" {
		return model.ClassificationResult{}, fmt.Errorf("classification missing bug_type")
	}
	result.Severity = strings.ToUpper(result.Severity)
	if !model.ValidSeverities[result.Severity] {
		return model.ClassificationResult{}, fmt.Errorf("classification has invalid severity %q", result.Severity)
	}
	if result.Summary == "" {
		return model.ClassificationResult{}, fmt.Errorf("classification missing summary")
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	if result.AffectedSystem == "" {
		result.AffectedSystem = "unknown"
	}
	if result.TechnicalDetails == nil {
		result.TechnicalDetails = []string{}
	}

	return result, nil
}
