// Command shell runs the activity-tracking service of the Solar desktop
// session.
//
// The service keeps the authoritative registry of running activities, maps
// compositor window events onto it, tracks the active and pending activity,
// and streams change signals to subscribers.
//
// Usage:
//
//	shell [-port 7300] [-bundles /usr/share/shell/bundles] [-dev]
//
// Configuration also comes from the environment (PORT, BUNDLE_DIR,
// LOG_LEVEL, ...); flags take precedence.
package main
