package config

import (
	"io"
)

// Template is the example configuration printed by --generate-config.
// It must stay parseable by Parse once the placeholder values are replaced.
const Template = `# repo with inventory file
repo_ssh_address: ssh://git@github.com:your/inventory/repo.git
# absolute path to private ssh key (should be accessible, no passphrase)
key_path: /absolute/path/private_key
# branch name of repo with inventory file
branch: any-name
# relative path to inventory directory or inventory file (inventory.yaml) - it will be used with ansible-inventory
target: inventory
# optional: known_hosts file used to verify the remote host key
# known_hosts: /absolute/path/known_hosts
# optional: skip host key verification (not recommended)
# insecure_ignore_host_key: false
`

// WriteTemplate writes Template to w.
func WriteTemplate(w io.Writer) error {
	_, err := io.WriteString(w, Template)
	return err
}
