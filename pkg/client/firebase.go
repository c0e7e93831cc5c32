package client

import (
	"context"
	"itemshare/pkg/logger"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// SetFirebase initialises the Firebase app and its Firestore and Auth
// clients. Without a credentials file Application Default Credentials are
// used.
func (c *Client) SetFirebase(log *logger.Logger, projectID, credentialsFile string, connTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			log.Warn("Credentials file is not readable, falling back to default credentials",
				"path", credentialsFile,
				"error", err,
			)
		} else {
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
	}

	var fbConfig *firebase.Config
	if projectID != "" {
		fbConfig = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		log.Fatal("Failed to initialise Firebase app", "error", err)
	}

	fs, err := app.Firestore(context.Background())
	if err != nil {
		log.Fatal("Failed to create Firestore client", "error", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		_ = fs.Close()
		log.Fatal("Failed to create Firebase Auth client", "error", err)
	}

	log.Info("Successfully connected to Firebase", "project_id", projectID)
	c.Firestore = fs
	c.Auth = authClient
	c.log = log
}
