// Package auth issues and verifies access tokens for dashboard users.
//
// Credentials are checked by an Authenticator, normally the persistence
// gateway. A successful Login returns an HS256-signed JWT carrying the user id
// and email, valid for one hour unless configured otherwise.
package auth
