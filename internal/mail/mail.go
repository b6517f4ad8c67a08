// Package mail renders transactional emails and delivers them over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	htmltemplate "html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/config"
	"github.com/iliyamo/maddi-booking/internal/model"
)

// Rendered is a ready-to-send email.
type Rendered struct {
	To      string
	Subject string
	HTML    string
}

// Render fills the layout named by msg.Template. Unknown templates fall
// back to a plain message listing the data.
func Render(msg model.EmailMessage) (Rendered, error) {
	if strings.TrimSpace(msg.RecipientEmail) == "" {
		return Rendered{}, fmt.Errorf("email %q has no recipient", msg.Template)
	}
	l, ok := layouts[msg.Template]
	if !ok {
		l = layout{Subject: "Maddi notification", Body: `<p>{{range $k, $v := .Data}}{{$k}}: {{$v}}<br>{{end}}</p>`}
	}
	name := msg.RecipientName
	if name == "" {
		name = msg.RecipientEmail
	}
	data := struct {
		Name string
		Data map[string]string
	}{Name: name, Data: msg.Data}

	// subjects are headers, not HTML, so they must not be entity-escaped
	st, err := texttemplate.New("subject").Option("missingkey=zero").Parse(l.Subject)
	if err != nil {
		return Rendered{}, err
	}
	var subject bytes.Buffer
	if err := st.Execute(&subject, data); err != nil {
		return Rendered{}, err
	}
	bt, err := htmltemplate.New("body").Option("missingkey=zero").Parse(l.Body)
	if err != nil {
		return Rendered{}, err
	}
	var body bytes.Buffer
	if err := bt.Execute(&body, data); err != nil {
		return Rendered{}, err
	}
	return Rendered{To: msg.RecipientEmail, Subject: subject.String(), HTML: body.String()}, nil
}

// Mailer delivers rendered emails. Without an SMTP host it only logs
// what would have been sent.
type Mailer struct {
	cfg  config.SMTPConfig
	log  *logrus.Entry
	send func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// defaultSendTimeout bounds a relay session when the caller set no deadline.
const defaultSendTimeout = 30 * time.Second

// New returns a Mailer for cfg.
func New(cfg config.SMTPConfig, log *logrus.Entry) *Mailer {
	return &Mailer{cfg: cfg, log: log.WithField("component", "mailer"), send: sendMail}
}

// SendEmail renders msg and hands it to the SMTP relay.
func (m *Mailer) SendEmail(ctx context.Context, msg model.EmailMessage) error {
	r, err := Render(msg)
	if err != nil {
		return err
	}
	entry := m.log.WithFields(logrus.Fields{"to": r.To, "template": msg.Template})
	if !m.cfg.Enabled() {
		entry.WithField("subject", r.Subject).Info("smtp not configured; email skipped")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultSendTimeout)
		defer cancel()
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := m.send(ctx, addr, auth, envelopeFrom(m.cfg.From), []string{r.To}, compose(m.cfg.From, r)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", r.To, err)
	}
	entry.Debug("email sent")
	return nil
}

// sendMail is smtp.SendMail with the dial and the whole session bounded
// by ctx.
func sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(dl); err != nil {
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer c.Close()
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func compose(from string, r Rendered) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + r.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", r.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(r.HTML)
	return []byte(b.String())
}

// envelopeFrom extracts the address from `Name <addr>`.
func envelopeFrom(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}
