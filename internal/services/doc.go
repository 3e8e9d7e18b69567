// Package services defines the [Dispatcher] interface for marksheet delivery and implements it
// for a local outbox, SMTP and an HTTP mail relay.
//
// # Dispatcher Interface
//
// A dispatcher accepts one [models.Delivery] (recipient, student, term and the rendered PDF) and
// reports only whether the transport accepted it. The publisher treats any error as a failed send.
//
// # Outbox
//
// [OutboxDispatcher] writes the PDF and a JSON [Envelope] into a directory. It is the default
// transport and the one used for dry runs and local review.
//
// # SMTP
//
// [SMTPDispatcher] sends a multipart/mixed message with the PDF attached, upgrading to STARTTLS when
// the server offers it. Configured credentials are required to be used: a server without AUTH
// fails the send.
//
// # Relay
//
// [RelayDispatcher] posts a JSON [RelayMessage] to an HTTP relay. With a token URL configured, the
// [clientcredentials] flow supplies bearer tokens, cached and refreshed by [oauth2].
//
// # Throttling
//
// [NewDispatcher] wraps the transport in a [ThrottledDispatcher] when a rate limit or timeout is
// configured:
//   - [shared.ErrTimeout] : a send exceeded dispatch.timeout
//   - [shared.ErrAuthFailed] : the SMTP server offers no AUTH for configured credentials, or the relay rejected them
//   - [shared.ErrAPIRequest] : the relay request failed or returned a non-2xx status
package services
