package plan

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Candidate is one raw, unvalidated item proposed by the generator
type Candidate struct {
	Name       string `json:"name"`
	Dosage     string `json:"dosage"`
	Timing     string `json:"timing"`
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"`
}

type candidateJSON struct {
	Name       string    `json:"name"`
	Item       string    `json:"item"`
	Supplement string    `json:"supplement"`
	Dosage     string    `json:"dosage"`
	Timing     string    `json:"timing"`
	Reason     string    `json:"reason"`
	Confidence flexScore `json:"confidence"`
}

type candidateEnvelope struct {
	Recommendations []candidateJSON `json:"recommendations"`
	Supplements     []candidateJSON `json:"supplements"`
	Items           []candidateJSON `json:"items"`
}

// flexScore accepts 85, 0.85, "85" and "85%"
type flexScore int

func (f *flexScore) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	raw = strings.TrimSuffix(raw, "%")
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*f = 0
		return nil
	}
	if v > 0 && v < 1 {
		v *= 100
	}
	*f = flexScore(clampScore(int(math.Round(v))))
	return nil
}

// ParseCandidates normalizes a generator payload into candidates.
// Payloads that are not a JSON array or a recommendations object (after stripping
// code fences and surrounding prose) yield an empty list rather than an error.
func ParseCandidates(payload string) []Candidate {
	body := extractJSON(payload)
	if body == nil {
		return []Candidate{}
	}

	var list []candidateJSON
	if body[0] == '[' {
		if err := json.Unmarshal(body, &list); err != nil {
			return []Candidate{}
		}
	} else {
		var env candidateEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return []Candidate{}
		}
		switch {
		case len(env.Recommendations) > 0:
			list = env.Recommendations
		case len(env.Supplements) > 0:
			list = env.Supplements
		default:
			list = env.Items
		}
	}

	out := make([]Candidate, 0, len(list))
	for _, c := range list {
		name := firstNonEmpty(c.Name, c.Item, c.Supplement)
		if name == "" {
			continue
		}
		out = append(out, Candidate{
			Name:       name,
			Dosage:     strings.TrimSpace(c.Dosage),
			Timing:     strings.TrimSpace(c.Timing),
			Reason:     strings.TrimSpace(c.Reason),
			Confidence: int(c.Confidence),
		})
	}
	return out
}

func extractJSON(payload string) []byte {
	s := strings.TrimSpace(payload)
	if s == "" {
		return nil
	}
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			s = strings.TrimSpace(rest[:j])
		}
	}

	// Prose may contain stray brackets before the payload; try each opener in turn.
	for offset := 0; offset < len(s); {
		i := strings.IndexAny(s[offset:], "[{")
		if i < 0 {
			return nil
		}
		start := offset + i
		closer := byte(']')
		if s[start] == '{' {
			closer = '}'
		}
		if end := strings.LastIndexByte(s, closer); end > start {
			body := []byte(s[start : end+1])
			if json.Valid(body) {
				return bytes.TrimSpace(body)
			}
		}
		offset = start + 1
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
