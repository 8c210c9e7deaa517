package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SSHRunner runs commands on a remote builder agent over SSH. The
// connection is established lazily and reused across commands.
type SSHRunner struct {
	host       string
	username   string
	privateKey []byte

	client *ssh.Client
	mu     sync.Mutex
}

func NewSSHRunner(host, username string, privateKey []byte) *SSHRunner {
	return &SSHRunner{
		host:       host,
		username:   username,
		privateKey: privateKey,
	}
}

func (s *SSHRunner) connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return nil
	}

	signer, err := ssh.ParsePrivateKey(s.privateKey)
	if err != nil {
		return fmt.Errorf("err parsing ssh private key: %w", err)
	}
	cc := &ssh.ClientConfig{
		User:            s.username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	host := s.host
	if !strings.Contains(host, ":") {
		host += ":22"
	}
	client, err := ssh.Dial("tcp", host, cc)
	if err != nil {
		return fmt.Errorf("err dialing ssh: %w", err)
	}
	s.client = client
	return nil
}

func (s *SSHRunner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func (s *SSHRunner) Run(ctx context.Context, dir, command string) (string, string, error) {
	if err := s.connect(); err != nil {
		return "", "", err
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("err creating new session: %w", err)
	}
	defer sess.Close()

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	sess.Stdout = stdout
	sess.Stderr = stderr

	if dir != "" {
		command = fmt.Sprintf("cd %s && %s", dir, command)
	}

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- sess.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGINT)
		return "", "", fmt.Errorf("command '%s' cancelled: %w", command, ctx.Err())
	case err := <-doneCh:
		if err != nil {
			return stdout.String(), stderr.String(), err
		}
		return stdout.String(), stderr.String(), nil
	}
}

// Fetch copies a file from the builder to localPath through SFTP.
func (s *SSHRunner) Fetch(ctx context.Context, remotePath, localPath string) error {
	if err := s.connect(); err != nil {
		return err
	}

	client, err := sftp.NewClient(s.client)
	if err != nil {
		return fmt.Errorf("err creating sftp client: %w", err)
	}
	defer client.Close()

	remote, err := client.Open(remotePath)
	if err != nil {
		return fmt.Errorf("err opening remote file: %w", err)
	}
	defer remote.Close()

	if err := os.MkdirAll(path.Dir(localPath), 0755); err != nil {
		return err
	}
	local, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer local.Close()

	if _, err := io.Copy(local, remote); err != nil {
		return fmt.Errorf("err copying remote file: %w", err)
	}
	return nil
}
