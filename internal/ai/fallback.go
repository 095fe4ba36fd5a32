package ai

import (
	"strings"

	"github.com/bughive/triage-backend/model"
)

// FallbackConfidence marks keyword-derived classifications as low-trust.
const FallbackConfidence = 0.3

// bugTypeKeywords maps each known bug type to its trigger keywords. Order
// matters: the first matching category wins.
var bugTypeKeywords = []struct {
	bugType  string
	keywords []string
}{
	{"XSS", []string{"xss", "cross-site scripting", "cross site scripting", "script injection"}},
	{"SQL Injection", []string{"sql injection", "sqli", "union select", "' or 1=1"}},
	{"CSRF", []string{"csrf", "cross-site request forgery", "cross site request forgery"}},
	{"Authentication Bypass", []string{"authentication bypass", "auth bypass", "login bypass"}},
	{"Authorization", []string{"authorization", "idor", "insecure direct object", "access control"}},
	{"RCE", []string{"rce", "remote code execution", "command injection", "code execution"}},
	{"LFI/RFI", []string{"lfi", "rfi", "local file inclusion", "remote file inclusion", "path traversal", "directory traversal"}},
	{"SSRF", []string{"ssrf", "server-side request forgery", "server side request forgery"}},
	{"Information Disclosure", []string{"information disclosure", "data leak", "sensitive data exposure", "exposed credentials"}},
	{"Business Logic", []string{"business logic", "race condition", "workflow bypass"}},
}

// severityKeywords are tiered: CRITICAL is checked before HIGH, HIGH before
// MEDIUM, so text mentioning both "rce" and "xss" classifies CRITICAL.
var severityKeywords = []struct {
	severity string
	keywords []string
}{
	{model.SeverityCritical, []string{"rce", "remote code execution", "system compromise", "admin access", "root access"}},
	{model.SeverityHigh, []string{"privilege escalation", "sensitive data", "authentication bypass", "sql injection"}},
	{model.SeverityMedium, []string{"xss", "csrf", "information disclosure", "denial of service"}},
}

// FallbackClassification derives a complete low-confidence classification
// from fixed keyword tables. It is used whenever the hosted model call fails
// and is fully deterministic.
func FallbackClassification(title, description, affectedSystem string) model.ClassificationResult {
	text := strings.ToLower(title + " " + description)

	bugType := "Unknown"
	for _, entry := range bugTypeKeywords {
		if containsAny(text, entry.keywords) {
			bugType = entry.bugType
			break
		}
	}

	severity := model.SeverityLow
	for _, tier := range severityKeywords {
		if containsAny(text, tier.keywords) {
			severity = tier.severity
			break
		}
	}

	if affectedSystem == "" {
		affectedSystem = "unknown"
	}

	return model.ClassificationResult{
		BugType:          bugType,
		Severity:         severity,
		AffectedSystem:   affectedSystem,
		Confidence:       FallbackConfidence,
		Summary:          "Automated analysis unavailable; classified by keyword heuristics.",
		TechnicalDetails: []string{"AI classification service unavailable"},
		SuggestedTeam:    "security",
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
