// Package auth implements a credential login and bearer token gate.
//
// Login:
//   - Auther verifies a Credential through an IdentityProvider (UserProvider
//     over the bun backed Users store) and issues a signed token through a
//     TokenService. An unknown identifier and a wrong secret are rejected
//     with the same ErrInvalidCredentials.
//   - Secrets are compared with a SecretComparer. PlaintextComparer is the
//     default, BcryptComparer is selected with the "bcrypt" password scheme.
//
// Tokens:
//   - TokenService signs HS256 tokens carrying iss, sub, jti and exp with a
//     fixed 15 minute lifetime. Verify fails closed and returns a Principal.
//
// HTTP:
//   - ProtectedRoute wraps the jwtware middleware. Requests without an
//     Authorization header get 400, requests whose token does not verify get
//     401, and verified requests carry the Principal in Locals and in the
//     user context (PrincipalFromFiber, PrincipalFromContext).
//   - RegisterRoutes mounts the login, user and protected endpoints.
//
// Errors are plain sentinels; OutcomeOf classifies any returned error into
// success, rejected or internal.
package auth
