package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/grandigitals/superteam-academy/core"
	"github.com/grandigitals/superteam-academy/ports"
)

const (
	TopicLessonCompleted  = "academy.lesson_completed"
	TopicCourseFinalized  = "academy.course_finalized"
	TopicCredentialIssued = "academy.credential_issued"
	TopicLogout           = "academy.logout"
)

// LogoutEvent represents a logout event
type LogoutEvent struct {
	Wallet  string `json:"wallet"`
	TokenID string `json:"token_id"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishLessonCompleted publishes a lesson completion event
func (p *WatermillPublisher) PublishLessonCompleted(ctx context.Context, event core.LessonCompletedEvent) error {
	return p.publish(TopicLessonCompleted, event)
}

// PublishCourseFinalized publishes a course finalization event
func (p *WatermillPublisher) PublishCourseFinalized(ctx context.Context, event core.CourseFinalizedEvent) error {
	return p.publish(TopicCourseFinalized, event)
}

// PublishCredential publishes a credential issue/upgrade event
func (p *WatermillPublisher) PublishCredential(ctx context.Context, event core.CredentialEvent) error {
	return p.publish(TopicCredentialIssued, event)
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, wallet string, tokenID string) error {
	return p.publish(TopicLogout, LogoutEvent{Wallet: wallet, TokenID: tokenID})
}
