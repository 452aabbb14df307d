// Package notify delivers run reports to the configured destinations, email
// via SMTP and plain webhooks.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	ntf "github.com/go-pkgz/notify"
)

// Service routes a report to every configured destination. Destinations are
// URLs, mailto: goes through SMTP, http(s): through the webhook sender.
type Service struct {
	email        *ntf.Email
	webhook      *ntf.Webhook
	destinations []string

	OnFailure    bool
	OnCompletion bool
}

// SMTPParams holds the email transport configuration
type SMTPParams struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	TimeOut  time.Duration
}

// New creates a notification service for the given destinations
func New(destinations []string, smtp SMTPParams, timeout time.Duration) *Service {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		email: ntf.NewEmail(ntf.SMTPParams{
			Host:     smtp.Host,
			Port:     smtp.Port,
			TLS:      smtp.TLS,
			Username: smtp.Username,
			Password: smtp.Password,
			TimeOut:  smtp.TimeOut,
		}),
		webhook:      ntf.NewWebhook(ntf.WebhookParams{Timeout: timeout}),
		destinations: destinations,
	}
}

// Send delivers the text to all destinations. Failures are logged and
// aggregated, one broken destination doesn't silence the others.
func (s *Service) Send(ctx context.Context, text string) error {
	var failed []string
	for _, dest := range s.destinations {
		var err error
		switch {
		case strings.HasPrefix(dest, "mailto:"):
			err = s.email.Send(ctx, dest, text)
		case strings.HasPrefix(dest, "http://"), strings.HasPrefix(dest, "https://"):
			err = s.webhook.Send(ctx, dest, text)
		default:
			err = fmt.Errorf("unsupported destination %s", dest)
		}
		if err != nil {
			log.Printf("[WARN] failed to notify %s: %v", dest, err)
			failed = append(failed, dest)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to deliver to %s", strings.Join(failed, ", "))
	}
	return nil
}

// FailedTrial is one failed trial line of the report
type FailedTrial struct {
	Description string
	Target      string
	Error       string
}

// Report holds everything the run-report template needs
type Report struct {
	Host    string
	Target  string
	TS      time.Time
	Total   int
	Passed  int
	Failed  []FailedTrial
	Elapsed time.Duration
}

// MakeReportHTML renders the run report to be sent
func MakeReportHTML(report Report) (string, error) {
	tmpl := `<!DOCTYPE html>
<html>
	<head>
		<meta name="viewport" content="width=device-width" />
		<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
		<style type="text/css">
			body {
				font-family: "Arial";
				font-size: 1.0em;
			}
			ul {
				margin-top: -0.5em;
				margin-left: -0.5em;
			}
			.bold {
				color: #882828;
				font-weight: 900;
			}
		</style>
	</head>

	<body>
		<p>Storefront check of <span class="bold">{{.Target}}</span> from {{.Host}} at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
		<ul>
			<li>Trials: <span class="bold">{{.Total}}</span></li>
			<li>Passed: <span class="bold">{{.Passed}}</span></li>
			<li>Failed: <span class="bold">{{len .Failed}}</span></li>
			<li>Elapsed: <span class="bold">{{.Elapsed}}</span></li>
		</ul>
		{{if .Failed}}
		<ul>
			{{range .Failed}}<li><span class="bold">{{.Description}}</span> ({{.Target}}): {{.Error}}</li>
			{{end}}
		</ul>
		{{end}}
	</body>
</html>
`
	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse report template: %w", err)
	}
	buf := bytes.Buffer{}
	if err := t.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}
