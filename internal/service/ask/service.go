// Package ask is the placeholder backend that answers POST /api/ask while the
// real answer service is elsewhere.
package ask

import (
	"context"
	"errors"
	"strings"
)

// PlaceholderAnswer is returned for every valid question.
const PlaceholderAnswer = "Sure, I can address the question based on the provided information. The net losses increased in FY25 due to strategic investments in 'Cost of Services' to build out the SkillTech engine. These investments were necessary to enhance our service offerings and improve our technology infrastructure, which is expected to yield long-term benefits and help us achieve our growth objectives."

// ErrMissingFields is returned when any request field is blank.
var ErrMissingFields = errors.New("question, phone, and access_code are required")

// Request is the inbound payload.
type Request struct {
	Question   string `json:"question"`
	Phone      string `json:"phone"`
	AccessCode string `json:"access_code"`
}

// Validate checks that every field is present.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Question) == "" || strings.TrimSpace(r.Phone) == "" || strings.TrimSpace(r.AccessCode) == "" {
		return ErrMissingFields
	}
	return nil
}

// Service produces stub answers.
type Service struct {
	answer string
}

// NewService returns a Service answering with PlaceholderAnswer, or with
// answer when it is non-empty.
func NewService(answer string) *Service {
	if answer == "" {
		answer = PlaceholderAnswer
	}
	return &Service{answer: answer}
}

// Answer validates req and returns the fixed answer.
func (s *Service) Answer(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.answer, nil
}
