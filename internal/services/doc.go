// Package services defines the shared error taxonomy for forge components.
// Components wrap failures with a sentinel marker so the batch runner can
// classify them into terminal job statuses without inspecting error strings.
package services
