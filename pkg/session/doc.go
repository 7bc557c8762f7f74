/*
Package session keeps many proof workspaces alive side by side.

Each session id maps to one live workspace. Edits to a session are serialised
by a reference-counted local lock and, when configured, a distributed lock, so
several server replicas can share one workspace store. Snapshots are written
back to the store after every edit and after every reconciled evaluator run.
*/
package session
