package connection

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"taskboard/config"
)

const emulatorProjectID = "taskboard-local"

// FBConnection opens the Firestore client described by cfg. With an
// emulator host configured the client talks to the emulator and needs no
// credentials.
func FBConnection(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*firestore.Client, error) {
	if cfg.EmulatorHost != "" {
		projectID := cfg.ProjectID
		if projectID == "" {
			projectID = emulatorProjectID
		}
		client, err := firestore.NewClient(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("connect to firestore emulator: %w", err)
		}
		log.WithField("emulator", cfg.EmulatorHost).Info("Firestore emulator connection successful")
		return client, nil
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("get firestore client: %w", err)
	}

	log.Info("Firestore connection successful")
	return client, nil
}
