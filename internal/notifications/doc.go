// Package notifications delivers batch lifecycle events to an ntfy topic.
package notifications
