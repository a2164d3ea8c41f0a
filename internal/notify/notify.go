package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"go.uber.org/zap"

	"acadef/backend/internal/metrics"
	"acadef/backend/pkg/mailer"
)

// Kind identifies a message template
type Kind string

const (
	KindStepCompleted          Kind = "step_completed"
	KindGuardianAccountCreated Kind = "guardian_account_created"
	KindSigningRequest         Kind = "signing_request"
	KindAdditionalDocuments    Kind = "additional_documents"
	KindAllStepsCompleted      Kind = "all_steps_completed"
	KindAdminNewApplication    Kind = "admin_new_application"
	KindLegacyRegistration     Kind = "legacy_registration"
	KindApproval               Kind = "approval"
	KindRejection              Kind = "rejection"
)

// Account remote credentials listed in the approval message
type Account struct {
	System   string
	Username string
	Password string
}

// Notifier sends templated messages. Send reports delivery and never fails the caller.
type Notifier interface {
	Send(ctx context.Context, kind Kind, to []string, data map[string]any) bool
}

//go:embed templates/*.html
var templateFS embed.FS

var bodies = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))

var subjects = map[Kind]*texttemplate.Template{}

func init() {
	raw := map[Kind]string{
		KindStepCompleted:          "Étape {{.Step}} complétée - Académie des Cadets de la Défense",
		KindGuardianAccountCreated: "Création de votre compte tuteur - Académie des Cadets",
		KindSigningRequest:         "Document à signer - Académie des Cadets de la Défense",
		KindAdditionalDocuments:    "Académie des Cadets de la Défense - Documents supplémentaires requis",
		KindAllStepsCompleted:      "Candidature complétée - Académie des Cadets de la Défense",
		KindAdminNewApplication:    "Nouvelle candidature complète - {{.FirstName}} {{.LastName}}",
		KindLegacyRegistration:     "Inscription Académie des Cadets de la Défense - Documents à signer",
		KindApproval:               "Félicitations - Votre candidature a été approuvée",
		KindRejection:              "Réponse à votre candidature - Académie des Cadets de la Défense",
	}
	for kind, s := range raw {
		subjects[kind] = texttemplate.Must(texttemplate.New(string(kind)).Parse(s))
	}
}

// StepName French label of a wizard step
func StepName(step int) string {
	switch step {
	case 1:
		return "Informations personnelles"
	case 2:
		return "Mesures physiques"
	case 3:
		return "Informations des tuteurs légaux"
	case 4:
		return "Signature des documents"
	case 5:
		return "Finalisation de la candidature"
	}
	return ""
}

// Render builds the subject and HTML body of a message
func Render(kind Kind, data map[string]any) (string, string, error) {
	subjectTmpl, ok := subjects[kind]
	if !ok {
		return "", "", fmt.Errorf("notify: unknown kind %q", kind)
	}

	var subject bytes.Buffer
	if err := subjectTmpl.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("notify: subject %s: %w", kind, err)
	}

	var body bytes.Buffer
	if err := bodies.ExecuteTemplate(&body, string(kind)+".html", data); err != nil {
		return "", "", fmt.Errorf("notify: body %s: %w", kind, err)
	}
	return subject.String(), body.String(), nil
}

// MailNotifier Notifier delivering through a mailer.Sender
type MailNotifier struct {
	sender  mailer.Sender
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewMailNotifier creates a MailNotifier; m may be nil
func NewMailNotifier(sender mailer.Sender, logger *zap.Logger, m *metrics.Metrics) *MailNotifier {
	return &MailNotifier{sender: sender, logger: logger, metrics: m}
}

func (n *MailNotifier) Send(ctx context.Context, kind Kind, to []string, data map[string]any) bool {
	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	if len(recipients) == 0 {
		n.logger.Warn("notification skipped, no recipient", zap.String("kind", string(kind)))
		n.metrics.IncNotification(string(kind), false)
		return false
	}

	subject, body, err := Render(kind, data)
	if err != nil {
		n.logger.Error("render notification failed", zap.String("kind", string(kind)), zap.Error(err))
		n.metrics.IncNotification(string(kind), false)
		return false
	}

	if err := n.sender.Send(ctx, recipients, subject, body); err != nil {
		n.logger.Error("send notification failed",
			zap.String("kind", string(kind)),
			zap.Strings("to", recipients),
			zap.Error(err),
		)
		n.metrics.IncNotification(string(kind), false)
		return false
	}

	n.metrics.IncNotification(string(kind), true)
	return true
}
