// Package common contains shared constants and sentinel errors used across
// scorekeeper components.
package common

// AuthorizationHeaderName is the HTTP header carrying the access token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// DefaultLeaderboardSize is the page size of the leaderboard when the
// configuration does not override it.
const DefaultLeaderboardSize = 10
