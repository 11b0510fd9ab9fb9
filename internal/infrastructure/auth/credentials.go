// Package auth resolves the acting user from request credentials.
package auth

import "context"

// Credentials are the raw identity hints a transport extracted from a request
type Credentials struct {
	BearerToken string
	DevUserID   string
	DevRole     string
}

type credentialsKey struct{}

// WithCredentials stores request credentials in ctx
func WithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, c)
}

// CredentialsFrom returns the credentials stored in ctx, if any
func CredentialsFrom(ctx context.Context) Credentials {
	c, _ := ctx.Value(credentialsKey{}).(Credentials)
	return c
}
