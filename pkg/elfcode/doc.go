// Package elfcode implements the Elfcode machine: a six register file, the
// sixteen operations that act on it and the program format that binds one
// register to the instruction pointer.
package elfcode
