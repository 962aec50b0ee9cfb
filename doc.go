// Package sessiongate implements a credential-and-session lifecycle engine:
// password and delegated-identity sign in, first-contact provisioning of
// user/email records, issuance of short-lived access tokens with longer-lived
// refresh secrets, transparent access-token renewal, and a lockout policy for
// repeated password failures.
//
// Durable state lives behind the Store interface; adapters for bun, redis,
// and an in-process map live under store/. Transport glue (cookies, headers,
// routes) lives in http.go, controller.go, and middleware/sessionware, so the
// engine itself never touches a request.
package sessiongate
