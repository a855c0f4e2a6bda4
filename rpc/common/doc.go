// Package common contains the data structures shared by every process in
// the system: the wire Message protocol (a closed union of all operations),
// the per-process configuration structs with their pretty-printers, and the
// named leveled logger facade.
package common
