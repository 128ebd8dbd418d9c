// Package notification delivers ready-for-pickup notices to clients.
//
// Notices are queued by Dispatcher and sent by a small worker pool, so the
// request that marked a document ready never waits on the channel. The
// concrete channel is a Notifier: LogNotifier for local use, WebhookNotifier
// for an external messaging service.
package notification
