package webhook

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// envelopeSchema is deliberately loose: form builders nest answers in
// provider-specific shapes, so only the fields this service reads are
// type-checked. Everything else passes through to the recursive URL walk.
const envelopeSchema = `{
	"type": "object",
	"properties": {
		"email":   {"type": "string"},
		"name":    {"type": "string"},
		"company": {"type": "string"},
		"consent": {"type": "boolean"},
		"files": {
			"anyOf": [
				{"type": "string"},
				{"type": "array", "items": {"type": "string"}}
			]
		},
		"response": {"type": "object"}
	}
}`

var compiledEnvelope = jsonschema.MustCompileString("webhook-envelope.json", envelopeSchema)

// Submission is the distilled webhook payload.
type Submission struct {
	Email    string
	Name     string
	Consent  bool
	FileURLs []string
}

// ParseSubmission decodes and validates the raw webhook body and collects
// respondent identity plus every attachment URL found anywhere in it.
func ParseSubmission(raw []byte) (Submission, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Submission{}, fmt.Errorf("decode payload: %w", err)
	}
	if err := compiledEnvelope.Validate(any(payload)); err != nil {
		return Submission{}, fmt.Errorf("validate payload: %w", err)
	}

	sub := Submission{Consent: true}

	response, _ := payload["response"].(map[string]any)

	sub.Email = firstString(payload["email"], response["email"])
	sub.Name = firstString(payload["name"], payload["company"], response["name"])
	if consent, ok := payload["consent"].(bool); ok {
		sub.Consent = consent
	}

	var urls []string
	switch files := payload["files"].(type) {
	case string:
		urls = append(urls, files)
	case []any:
		for _, f := range files {
			if s, ok := f.(string); ok {
				urls = append(urls, s)
			}
		}
	}
	urls = append(urls, findURLs(payload)...)
	sub.FileURLs = dedupe(urls)

	return sub, nil
}

// findURLs walks the payload recursively and picks up every string that
// looks like a downloadable attachment. Map keys are visited in sorted
// order so the resulting URL order is deterministic.
func findURLs(v any) []string {
	var urls []string
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			urls = append(urls, findURLs(t[k])...)
		}
	case []any:
		for _, item := range t {
			urls = append(urls, findURLs(item)...)
		}
	case string:
		if isAttachmentURL(t) {
			urls = append(urls, t)
		}
	}
	return urls
}

func isAttachmentURL(s string) bool {
	if !strings.HasPrefix(s, "http") {
		return false
	}
	lower := strings.ToLower(s)
	for _, ext := range []string{".pdf", ".jpg", ".jpeg", ".png"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func firstString(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
