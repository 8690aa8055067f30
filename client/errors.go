package client

import "errors"

// ErrLoginFailed is the single user facing message for any rejected login
var ErrLoginFailed = errors.New("Error al iniciar sesion")

// ErrConnection is returned when the server cannot be reached
var ErrConnection = errors.New("Error de conexión")

// ErrLoginInProgress is returned when Login is called while another login is
// in flight
var ErrLoginInProgress = errors.New("login already in progress")

// ErrNotAuthenticated is returned for protected calls attempted while logged
// out. No request is sent.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrSessionExpired is returned when the server rejected the session token.
// The session is logged out before it is returned.
var ErrSessionExpired = errors.New("session expired")

// ErrNotFound is returned when a requested resource does not exist
var ErrNotFound = errors.New("not found")

// ErrUnexpectedStatus wraps any other non success response
var ErrUnexpectedStatus = errors.New("unexpected response status")
