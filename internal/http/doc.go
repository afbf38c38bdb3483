// Package http exposes the station over HTTP.
//
// The router serves the following endpoints:
//   - GET /session: the current scan session snapshot (state, draft, return
//     countdown, last message and offered duration choices).
//   - POST /scans: queues one complete scan token. Body: {"token"}.
//   - POST /keys: feeds raw key events through the keystroke decoder. Body:
//     {"events":[{"key","code","key_code","at"}]}.
//   - GET /calendar?month=YYYY-MM&width=N: month layout with bar lanes,
//     singles per day and pixel heights for the viewport width.
//   - GET /reservations?filter=today|active|future|past|all: reservations
//     sorted by start.
//   - GET /reservations/conflicts?tool=&start=&end=&exclude=ID: reservations
//     of the tool overlapping the range, for early form warnings.
//   - POST /reservations/manual: books a tool for the bearer token's user.
//     Body: {"tool","start","end","note"} with RFC 3339 timestamps.
//   - PATCH /reservations/{id}, DELETE /reservations/{id}: forwarded to the
//     backend with the caller's bearer token.
//   - GET /journal?limit=N&kind=&tool=&since=RFC3339: local commit journal,
//     newest first.
//   - GET /healthz: liveness probe; pings the journal database when one is
//     configured.
//
// POST /scans and POST /keys require the X-Operator-Pin header when an
// operator PIN hash is configured. Reservation mutations require an
// Authorization: Bearer header.
package http
