// Package repo fetches the inventory repository for a single run.
//
// Cloning is done in-process with go-git rather than by shelling out to the
// git binary, so the tool works on hosts that only have Ansible installed.
// Only one credential strategy is supported: an unencrypted private key
// file plus the username embedded in the remote URL. Credentials are
// resolved once, before the transfer starts.
//
// Exactly one branch is cloned, with its full history. There is no retry;
// a failed clone is reported as a CLIError with ExitClone and the caller is
// responsible for removing whatever was written to the destination.
package repo
