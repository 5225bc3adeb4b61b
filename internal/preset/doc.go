// Package preset defines output parameter bundles for audio conversion and
// the registry of named presets seeded with forge's built-ins.
package preset
