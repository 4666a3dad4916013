package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"jobwatch/internal/config"
	"jobwatch/internal/domain"
	"jobwatch/internal/logging"
)

type Sender interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

type Archiver interface {
	Archive(ctx context.Context, msg []byte) error
}

type Messenger interface {
	SendText(ctx context.Context, text string) error
}

// Notifier fans one delta out to every configured channel. Any nil channel
// is skipped.
type Notifier struct {
	From string
	To   []string

	Mail    Sender
	Archive Archiver
	Chat    Messenger
	Now     func() time.Time
	Log     *logging.Logger
}

// FromConfig enables each channel whose settings and credentials are present.
func FromConfig(cfg config.Config, log *logging.Logger) *Notifier {
	n := &Notifier{From: cfg.Mail.From, To: cfg.Mail.To, Log: log}
	creds := cfg.Credentials

	if cfg.Mail.From != "" && len(cfg.Mail.To) > 0 && creds.SMTPPassword != "" && cfg.Mail.SMTPHost != "" {
		n.Mail = &SMTPMailer{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.From,
			Password: creds.SMTPPassword,
		}
		if cfg.Mail.IMAPHost != "" && cfg.Mail.ArchiveMailbox != "" {
			n.Archive = &IMAPArchiver{
				Host:     cfg.Mail.IMAPHost,
				Port:     cfg.Mail.IMAPPort,
				Username: cfg.Mail.From,
				Password: creds.SMTPPassword,
				Mailbox:  cfg.Mail.ArchiveMailbox,
			}
		}
	} else {
		log.Debug("[notify] email disabled: sender, recipients or password not configured")
	}

	if creds.TelegramToken != "" && cfg.Telegram.ChatID != 0 {
		tg, err := NewTelegram(creds.TelegramToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Warn("[notify] telegram disabled", "err", err)
		} else {
			n.Chat = tg
		}
	}
	return n
}

// Notify sends the delta. An empty delta sends nothing. Channel failures are
// logged and returned joined; one failing channel never blocks the others.
func (n *Notifier) Notify(ctx context.Context, delta []domain.Record, day civil.Date) error {
	if len(delta) == 0 {
		n.Log.Debug("[notify] nothing new; skipping")
		return nil
	}

	var errs []error
	if n.Mail != nil {
		if err := n.sendMail(ctx, delta, day); err != nil {
			n.Log.Error("[notify] email failed", "err", err)
			errs = append(errs, err)
		}
	}
	if n.Chat != nil {
		if err := n.Chat.SendText(ctx, TelegramText(delta, day)); err != nil {
			n.Log.Error("[notify] telegram failed", "err", err)
			errs = append(errs, err)
		} else {
			n.Log.Info("[notify] telegram sent", "postings", len(delta))
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) sendMail(ctx context.Context, delta []domain.Record, day civil.Date) error {
	d, err := BuildDigest(delta, day)
	if err != nil {
		return err
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	msg, err := BuildMessage(n.From, n.To, d, now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	if err := n.Mail.Send(ctx, n.From, n.To, msg); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	n.Log.Info("[notify] email sent", "to", n.To, "postings", len(delta))

	if n.Archive != nil {
		if err := n.Archive.Archive(ctx, msg); err != nil {
			return fmt.Errorf("archive digest: %w", err)
		}
		n.Log.Debug("[notify] digest archived")
	}
	return nil
}
