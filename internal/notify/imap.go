package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// IMAPArchiver appends sent digests to a mailbox so they show up next to
// the user's mail even when the SMTP provider does not keep a copy.
type IMAPArchiver struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string
}

func (a *IMAPArchiver) Archive(ctx context.Context, msg []byte) error {
	if a.Mailbox == "" {
		return errors.New("imap archive mailbox is required")
	}
	addr := net.JoinHostPort(a.Host, strconv.Itoa(a.Port))

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{ServerName: a.Host, MinVersion: tls.VersionTLS12},
	})
	if err != nil {
		return fmt.Errorf("imap dial tls: %w", err)
	}
	defer c.Close()

	// Best-effort close on context cancel.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()

	if err := c.Login(a.Username, a.Password).Wait(); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}

	cmd := c.Append(a.Mailbox, int64(len(msg)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagSeen},
		Time:  time.Now(),
	})
	if _, err := cmd.Write(msg); err != nil {
		return fmt.Errorf("imap append write: %w", err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap append close: %w", err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("imap append %s: %w", a.Mailbox, err)
	}

	_ = c.Logout().Wait()
	return nil
}
