// Package fragments is a client for the fragments REST API.
//
// # Overview
//
// Each method translates one logical operation into one authenticated HTTP
// request and one normalized result:
//
//   - GET    /v1/fragments[?expand=1]  GetFragments
//   - GET    /v1/fragments/:id         GetFragment, GetFragmentData
//   - GET    /v1/fragments/:id/info    GetFragmentMetadata
//   - POST   /v1/fragments             CreateFragment
//   - PUT    /v1/fragments/:id         UpdateFragment
//   - DELETE /v1/fragments/:id         DeleteFragment
//
// The client asks its oauth2.TokenSource for the identity token on every call
// and sends it as "Authorization: Bearer <token>". When no valid token is
// available the call fails with an *AuthenticationError and nothing is sent.
//
// # Responses
//
// A 204 response yields a nil result. JSON bodies are parsed when the service
// declares a JSON content type. GetFragmentData always returns the body
// verbatim. Listings are unwrapped from the {"fragments": [...]} envelope.
//
// # Error Handling
//
// Every failure is exactly one of:
//
//   - *AuthenticationError  no/expired token, or HTTP 401; sign in again
//   - *NetworkError         the request could not be sent or read; may retry
//   - *APIError             the service answered with a non-2xx status
//   - *ValidationError      bad caller input, caught before any request
//
// The client never retries and never redirects.
//
// # Example
//
//	client, err := fragments.NewClient(&fragments.Config{
//	    BaseURL: "http://localhost:8080",
//	}, authClient)
//	if err != nil {
//	    return err
//	}
//
//	frag, err := client.CreateFragment(ctx, []byte("hello"), "text/plain")
//	var authErr *fragments.AuthenticationError
//	if errors.As(err, &authErr) {
//	    // prompt for login
//	}
package fragments
