// Package sandbox compiles and runs untrusted exercise source
// inside an embedded JavaScript runtime.
//
// # Isolation
//
// Every evaluation owns a fresh [goja.Runtime]. Source is parsed
// as the body of a function expression and compiled only when that
// expression covers the whole wrapper; nothing runs before the
// callable is invoked. The code sees the runtime's globals
// (timers, built-ins, the captured console) but never any binding
// of the calling Go program or of another evaluation. This is scope isolation only:
// nothing here defends against resource exhaustion or prototype
// pollution of the runtime's own globals.
//
// # Output capture
//
// Code publishes results by assigning onto the single parameter
// `exports` (for example `exports.add = (a, b) => a + b`). The
// populated object is handed back as [Exports], which host
// predicates read through Get, Export and Call.
//
// # Timeouts
//
// Calls are synchronous. A [Sandbox] created with a hard limit
// interrupts the runtime from another goroutine once the limit
// elapses; without one, a synchronous infinite loop blocks the
// calling goroutine.
package sandbox
