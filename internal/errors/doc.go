// Package errors defines error types for the emulator runner.
//
// This package provides structured error types that wrap the different failure
// scenarios of starting the aws-lambda-rie process and invoking it over HTTP.
// All error types support error unwrapping and can be checked using errors.Is,
// errors.As, and errors.AsType.
package errors
