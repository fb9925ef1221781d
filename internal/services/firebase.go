package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

var ErrFirebaseNotConfigured = errors.New("firebase credentials not configured")

// NewFirebaseApp initializes the Firebase app shared by token verification and
// push notifications. Base64 credentials win over a credentials file, which
// suits hosts where uploading files is awkward.
func NewFirebaseApp(ctx context.Context, credentialsBase64, credentialsFile string) (*firebase.App, error) {
	var opt option.ClientOption

	switch {
	case credentialsBase64 != "":
		credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(credentialsJSON)
		log.Println("🔑 Using Firebase credentials from FIREBASE_CREDENTIALS_BASE64")
	case credentialsFile != "":
		opt = option.WithCredentialsFile(credentialsFile)
		log.Printf("🔑 Using Firebase credentials file %s", credentialsFile)
	default:
		return nil, ErrFirebaseNotConfigured
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	return app, nil
}
