// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

/*
Package mobynet locates the network namespace of a Docker container, so that
subdomains can be scanned from the perspective of that container, using its
DNS configuration (such as Docker's embedded DNS resolver).
*/
package mobynet

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	log "github.com/sirupsen/logrus"
)

// EmbeddedDNS is the address of Docker's embedded DNS resolver as seen from
// inside containers on custom networks.
const EmbeddedDNS = "127.0.0.11:53"

// ContainerInspector inspects containers; *client.Client is a
// ContainerInspector.
type ContainerInspector interface {
	ContainerInspect(ctx context.Context, container string) (types.ContainerJSON, error)
}

var _ ContainerInspector = (*client.Client)(nil)

// NewClient returns a new Docker client connected to the specified Docker
// daemon API endpoint, or the default local socket if empty.
func NewClient(host string) (*client.Client, error) {
	if host == "" {
		host = "unix:///var/run/docker.sock"
	}
	cln, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to the Docker daemon: %w", err)
	}
	return cln, nil
}

// NetnsOfContainer returns the filesystem path referencing the network
// namespace of the specified container, which must be running.
func NetnsOfContainer(ctx context.Context, moby ContainerInspector, nameOrID string) (string, error) {
	details, err := moby.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return "", fmt.Errorf("cannot inspect container '%s': %w", nameOrID, err)
	}
	if details.ContainerJSONBase == nil || details.State == nil || details.State.Pid == 0 {
		return "", fmt.Errorf("container '%s' is not running", nameOrID)
	}
	netnsref := fmt.Sprintf("/proc/%d/ns/net", details.State.Pid)
	log.WithFields(log.Fields{
		"container": strings.TrimPrefix(details.Name, "/"), // argh, Docker's "/name" legacy!
		"netns":     netnsref,
	}).Debug("located container network namespace")
	return netnsref, nil
}
