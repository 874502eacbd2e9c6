// Package proc controls the execution of an Elfcode program.
//
// A Target owns the register file, the observation history of every
// register and the breakpoint table. It steps the program one instruction
// at a time and continues until a breakpoint condition holds, the ip
// register leaves the program or a manual stop is requested.
package proc
