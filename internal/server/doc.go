// Package server runs the loopback HTTP server that receives the Spotify authorization redirect.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] logs each request without its query string.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
//
// # Callback Server
//
// [CallbackServer] serves the redirect URI's path. It forwards each request to an
// auth.CallbackHandler and acts as its navigator: once the handler scrubs the URL the browser is
// redirected to the clean path so the code and state leave the address bar and history. The clean
// path renders the outcome of the last attempt.
//
// The first terminal outcome is sent on [CallbackServer.Result]; the CLI then calls
// [Server.Shutdown].
package server
