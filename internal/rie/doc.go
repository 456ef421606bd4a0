// Package rie provides discovery, argument building, and environment building
// for the aws-lambda-rie runtime interface emulator binary.
//
// # Binary Discovery
//
// The Discoverer interface locates the emulator binary:
//
//	discoverer := rie.NewDiscoverer(&rie.Config{
//	    BinaryPath: "",           // Optional explicit path
//	    Logger:     slog.Default(),
//	})
//	binary, err := discoverer.Discover()
//
// Discovery searches in the following order:
//  1. Explicit path in Config.BinaryPath (if provided)
//  2. The AWS_LAMBDA_RIE_PATH environment variable
//  3. System PATH
//  4. Common installation directories (/usr/local/bin, /usr/bin, ~/.aws-lambda-rie)
//
// # Command Building
//
//	bootstrap, err := rie.BootstrapPath(handlerPath)
//	args := rie.BuildArgs(bootstrap, publicPort, internalPort)
//	env := rie.BuildEnvironment(overrides)
package rie
