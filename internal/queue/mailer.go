package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Mailer delivers a rendered notification.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// FileMailer appends each message as one line to a log file.  It stands in
// for an SMTP relay in development and keeps an audit trail in production.
type FileMailer struct {
	path string
	log  logrus.FieldLogger
	mu   sync.Mutex
}

// NewFileMailer returns a mailer writing to path.  The parent directory is
// created on first send.
func NewFileMailer(path string, log logrus.FieldLogger) *FileMailer {
	return &FileMailer{path: path, log: log.WithField("component", "mailer")}
}

// Send appends the message to the file.
func (m *FileMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(m.path), err)
	}
	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", m.path, err)
	}
	defer f.Close()

	body := strings.ReplaceAll(msg.Body, "\n", " ")
	line := fmt.Sprintf("[%s] to=%s | subject=%q | %s\n", time.Now().UTC().Format(time.RFC3339), msg.To, msg.Subject, body)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write %s: %w", m.path, err)
	}
	m.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("notification sent")
	return nil
}
