// Package services talks to the podcast GraphQL API.
//
// # Gateway
//
// Every operation goes through [Gateway.Execute]. The gateway attaches the session token as a bearer
// credential (via an [oauth2.Transport] over a static token source) unless the operation is anonymous.
// Requests carry an X-Request-ID and wait on a rate limiter before sending.
//
// # Outcomes
//
// Failures are [*GatewayError] values classified by [Outcome]:
//   - [AuthRejected] : HTTP 401/403 or an UNAUTHENTICATED/FORBIDDEN GraphQL error; the gateway clears the token and runs the OnAuthRejected handlers
//   - [ValidationRejected] : any other GraphQL error or HTTP 400/422, with per-field messages in Fields
//   - [TransportFailure] : network errors, timeouts, 5xx and undecodable replies; never retried here
//
// Anonymous operations (login, signup) carry no credential, so auth errors there are reported as ValidationRejected.
//
// # Podcast Service
//
// [PodcastService] wraps the five remote operations (Login, Signup, Me, UpdatePreferences, GetPodcast)
// and maps replies onto the models package.
package services
