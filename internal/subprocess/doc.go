// Package subprocess supervises the emulator process.
//
// It spawns the binary, forwards its stderr (and optionally stdout) line by
// line to an output handler, reports the first chunk of stderr output, and
// terminates the process on request. A process that exits on its own is
// logged and never restarted.
package subprocess
