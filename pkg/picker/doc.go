/*
Package picker holds the per-session state of the capability picker: the
multi-selection, the expand/collapse state of the tree and the active filter.

A Session is owned by exactly one driver at a time and is not safe for
concurrent use. Hosts that serve several drivers persist Session.State between
events and serialise access per session id (see pkg/session).
*/
package picker
