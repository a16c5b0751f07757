/*
Package session orchestrates access to open picker sessions.

A picker's state lives in a ports.PickerStore between driver events. The
Manager serialises load-modify-save cycles per session id with a local,
reference-counted mutex and, when configured, a distributed lock shared by
every replica.
*/
package session
