package config

import (
	"net"
	"os"
	"sync"
)

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the application is running inside a Docker container.
// Detection is based on the presence of /.dockerenv file which exists in all Docker containers.
// The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker rewrites a loopback store host to host.docker.internal
// when running in Docker, so a store on the host machine stays reachable.
// Accepts either "host" or "host:port"; the port is preserved.
func ResolveHostForDocker(hostport string) string {
	if !IsRunningInDocker() {
		return hostport
	}
	return resolveLoopback(hostport)
}

func resolveLoopback(hostport string) string {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = hostport, ""
	}
	if host != "localhost" && host != "127.0.0.1" {
		return hostport
	}
	if port == "" {
		return "host.docker.internal"
	}
	return net.JoinHostPort("host.docker.internal", port)
}
