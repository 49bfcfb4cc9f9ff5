package firebase

import (
	"context"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// App bundles the Firebase app with the auth client used to verify ID tokens
// at /api/v1/auth/firebase-login.
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// InitFirebase loads a service account file and builds the auth client.
// Federated login is optional, so callers only invoke this when a
// credentials path is configured.
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, errors.New("firebase credentials path is empty")
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, errors.Wrapf(err, "firebase credentials unreadable at %s", credentialsPath)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize firebase app")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create firebase auth client")
	}
	return &App{FirebaseApp: app, AuthClient: client}, nil
}
