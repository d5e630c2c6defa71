// Package gcp builds client options shared by the Firebase and Cloud Storage clients.
package gcp

import (
	"context"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

var defaultScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/firebase",
	"https://www.googleapis.com/auth/userinfo.email",
}

// ClientOptions returns options carrying the given service account JSON.
// With no JSON the clients fall back to Application Default Credentials.
func ClientOptions(ctx context.Context, credentialsJSON string) ([]option.ClientOption, error) {
	if credentialsJSON == "" {
		return nil, nil
	}
	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), defaultScopes...)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// ProjectID reports the project embedded in the credentials, if any.
func ProjectID(ctx context.Context, credentialsJSON string) string {
	if credentialsJSON == "" {
		return ""
	}
	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), defaultScopes...)
	if err != nil {
		return ""
	}
	return creds.ProjectID
}
