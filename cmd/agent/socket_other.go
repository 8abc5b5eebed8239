//go:build !unix

package main

// checkDockerSocketAccess is a no-op where unix sockets are not the engine transport.
func checkDockerSocketAccess(string) error { return nil }
