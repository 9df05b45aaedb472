package orch

import (
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/util"
)

const sshTimeout = 30 * time.Second

// Dispatch runs a shell command on a remote host over ssh and waits for
// it to finish. Output from the remote side is logged; a non-zero exit
// status comes back as an error.
func Dispatch(hostCfg *config.HostConfig, command string) error {
	auth, err := authMethods(hostCfg)
	if err != nil {
		return err
	}
	clientCfg := &ssh.ClientConfig{
		User:            hostCfg.AcctRun,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         sshTimeout,
	}

	address := net.JoinHostPort(hostCfg.Hostname, "22")
	client, err := ssh.Dial("tcp", address, clientCfg)
	if err != nil {
		return fmt.Errorf("ssh dial %s: %w", address, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("ssh session %s: %w", address, err)
	}
	defer session.Close()

	output, err := session.CombinedOutput(command)
	if len(output) > 0 {
		util.WithField("host", hostCfg.Hostname).Debugf("remote output: %s", output)
	}
	if err != nil {
		return fmt.Errorf("remote command on %s failed: %w", hostCfg.Hostname, err)
	}
	return nil
}

// authMethods builds the ssh authentication chain for a host: key file
// first, configured password next, interactive prompt as the fallback.
func authMethods(hostCfg *config.HostConfig) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if hostCfg.KeyFilename != "" {
		raw, err := os.ReadFile(hostCfg.KeyFilename)
		if err != nil {
			return nil, fmt.Errorf("read ssh key %s: %w", hostCfg.KeyFilename, err)
		}
		signer, err := ssh.ParsePrivateKey(raw)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key %s: %w", hostCfg.KeyFilename, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if hostCfg.Password != "" {
		methods = append(methods, ssh.Password(hostCfg.Password))
	} else if term.IsTerminal(int(os.Stdin.Fd())) {
		methods = append(methods, ssh.PasswordCallback(func() (string, error) {
			fmt.Fprintf(os.Stderr, "password for %s@%s: ", hostCfg.AcctRun, hostCfg.Hostname)
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return "", err
			}
			return string(raw), nil
		}))
	}

	if len(methods) == 0 {
		return nil, config.NewCfgError(
			"host %s has no usable ssh credentials", hostCfg.Hostname)
	}
	return methods, nil
}
