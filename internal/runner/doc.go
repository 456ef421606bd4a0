// Package runner implements a single supervised emulator instance.
//
// A Runner allocates its ports, spawns aws-lambda-rie, and bridges
// invocations to it once the readiness gate opens. The ports, the process
// handle, and the gate are fixed at construction and never exposed. The
// process lives until Close; there are no finalizers, so releasing it is the
// caller's responsibility.
package runner
