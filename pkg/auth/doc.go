// Package auth signs a user in against an OpenID Connect provider, such as
// an Amazon Cognito user pool, and keeps the resulting session.
//
// Sign-in uses the authorization code flow with PKCE:
//
//  1. BeginLogin records a pending sign-in (state and code verifier) and
//     returns the provider authorization URL. SignIn also opens it.
//  2. The provider redirects to the configured redirect URL with a code.
//  3. CompleteLoginIfPending exchanges the code, verifies the ID token
//     against the provider keys and stores the session.
//
// The stored session is exposed through GetUser, IDToken and AccessToken.
// Client also implements oauth2.TokenSource so it can be handed to the
// fragments client, which sends the ID token as a bearer credential.
//
// For command line use, CallbackServer listens on the redirect URL and
// completes the sign-in when the browser returns:
//
//	client, err := auth.NewClient(ctx, cfg, auth.NewFileStore(nil, path))
//	srv, err := auth.NewCallbackServer(client, cfg.RedirectURL, logger)
//	srv.Start()
//	client.SignIn(ctx)
//	session, err := srv.Wait(ctx)
package auth
