package services

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"

	"remat-backend/internal/models"
)

// TokenSource looks up the push tokens registered by a user
type TokenSource interface {
	GetUserTokens(ctx context.Context, userID string) ([]string, error)
}

// PickupNotifier tells a citizen that an admin processed their pickup request
type PickupNotifier interface {
	NotifyPickupStatus(ctx context.Context, pickup *models.PickupRequest) error
}

// FCMService handles Firebase Cloud Messaging
type FCMService struct {
	client *messaging.Client
	tokens TokenSource
}

// NewFCMService creates a new FCM service from an initialized Firebase app
func NewFCMService(ctx context.Context, app *firebase.App, tokens TokenSource) (*FCMService, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client, tokens: tokens}, nil
}

// NotifyPickupStatus pushes the accepted/rejected outcome of a pickup request
// to every device of its owner. Users without tokens are skipped silently.
func (s *FCMService) NotifyPickupStatus(ctx context.Context, pickup *models.PickupRequest) error {
	tokens, err := s.tokens.GetUserTokens(ctx, pickup.UserID)
	if err != nil {
		return fmt.Errorf("failed to load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	title, body := pickupNotificationText(pickup)
	data := map[string]string{
		"type":              "pickup_status",
		"pickup_request_id": pickup.ID,
		"status":            string(pickup.Status),
	}
	if pickup.PointsAwarded != nil {
		data["points_awarded"] = fmt.Sprintf("%d", *pickup.PointsAwarded)
	}

	return s.SendMulticast(ctx, tokens, title, body, data)
}

func pickupNotificationText(pickup *models.PickupRequest) (string, string) {
	switch pickup.Status {
	case models.PickupStatusAccepted:
		points := 0
		if pickup.PointsAwarded != nil {
			points = *pickup.PointsAwarded
		}
		return "Pickup Accepted!", fmt.Sprintf("Your pickup request was accepted. You earned %d points.", points)
	case models.PickupStatusRejected:
		body := "Your pickup request was rejected."
		if pickup.RejectionReason != nil && *pickup.RejectionReason != "" {
			body = fmt.Sprintf("Your pickup request was rejected: %s", *pickup.RejectionReason)
		}
		return "Pickup Update", body
	default:
		return "Pickup Update", fmt.Sprintf("Your pickup request is now %s.", pickup.Status)
	}
}

// SendMulticast sends the same message to multiple tokens
func (s *FCMService) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	log.Printf("✅ Multicast sent: %d success, %d failures", response.SuccessCount, response.FailureCount)
	return nil
}
