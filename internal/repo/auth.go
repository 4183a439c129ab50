package repo

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"
)

// DefaultUser is used when the remote URL carries no username.
const DefaultUser = "git"

// HostKeys selects how the remote SSH host key is verified.
// The zero value uses go-git's defaults (SSH_KNOWN_HOSTS, then
// ~/.ssh/known_hosts and /etc/ssh/ssh_known_hosts).
type HostKeys struct {
	// KnownHostsFile restricts verification to a single known_hosts file.
	KnownHostsFile string

	// InsecureIgnore accepts any host key.
	InsecureIgnore bool
}

// NormalizeURL rewrites remotes written as ssh://user@host:owner/repo.git,
// where the text after the colon is a path rather than a port, into the
// scp-like form user@host:owner/repo.git that go-git can parse. Every other
// URL is returned unchanged.
func NormalizeURL(raw string) string {
	const scheme = "ssh://"
	if !strings.HasPrefix(raw, scheme) {
		return raw
	}

	rest := raw[len(scheme):]
	authority, _, _ := strings.Cut(rest, "/")

	// Skip userinfo and bracketed IPv6 literals before looking for a port.
	hostStart := strings.LastIndex(authority, "@") + 1
	if i := strings.LastIndex(authority, "]"); i >= hostStart {
		hostStart = i + 1
	}
	colon := strings.Index(authority[hostStart:], ":")
	if colon < 0 {
		return raw
	}

	port := authority[hostStart+colon+1:]
	if port != "" && isDigits(port) {
		return raw
	}
	return rest
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ResolveAuth builds the credentials for remote.
//
// SSH endpoints get public-key authentication using the private key at
// keyPath and the username from the URL (DefaultUser when absent).
// Passphrase-protected keys are not supported. Non-SSH endpoints (local
// paths, file:// URLs) need no credentials and yield nil.
func ResolveAuth(remote, keyPath string, hostKeys HostKeys) (transport.AuthMethod, error) {
	ep, err := transport.NewEndpoint(remote)
	if err != nil {
		return nil, fmt.Errorf("parsing remote %q: %w", remote, err)
	}
	if ep.Protocol != "ssh" {
		return nil, nil
	}

	user := ep.User
	if user == "" {
		user = DefaultUser
	}

	keys, err := gitssh.NewPublicKeysFromFile(user, keyPath, "")
	if err != nil {
		return nil, fmt.Errorf("loading private key %s: %w", keyPath, err)
	}

	switch {
	case hostKeys.InsecureIgnore:
		// #nosec G106 -- opt-in through insecure_ignore_host_key
		keys.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	case hostKeys.KnownHostsFile != "":
		callback, err := gitssh.NewKnownHostsCallback(hostKeys.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts %s: %w", hostKeys.KnownHostsFile, err)
		}
		keys.HostKeyCallback = callback
	}

	return keys, nil
}
