// Package formrelay delivers applications through a hosted form-to-email relay. The relay
// receives a multipart POST addressed to the operator mailbox, so documents travel as files.
package formrelay

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"nominee-applications/internal/common/http"
	"nominee-applications/internal/common/logger"
	"nominee-applications/internal/delivery"
	"nominee-applications/internal/models"
)

const maxErrorBody = 512

type ServiceDependencies struct {
	Documents delivery.DocumentSource
	Logger    logger.Logger
}

type Service struct {
	config *Config
	client *http.Client
	docs   delivery.DocumentSource
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("formrelay config: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	return &Service{
		config: config,
		client: http.NewClient(config.Timeout),
		docs:   deps.Documents,
		logger: deps.Logger,
	}, nil
}

func (s *Service) Name() string { return "formrelay" }

// Deliver posts every submission value as a form field plus one "attachment" file per
// uploaded document. Any non-2xx answer is a failure.
func (s *Service) Deliver(ctx context.Context, sub *models.Submission) error {
	attachments, err := delivery.LoadAttachments(ctx, s.docs, sub.Attachments)
	if err != nil {
		return err
	}

	req := s.client.R(ctx).
		SetHeader("Accept", "text/html,application/json").
		SetMultipartFormData(s.formFields(sub))
	for _, a := range attachments {
		req.SetMultipartField("attachment", a.FileName, a.ContentType, bytes.NewReader(a.Data))
	}

	resp, err := req.Post(s.target())
	if err != nil {
		return fmt.Errorf("form relay request: %w", err)
	}
	if resp.IsError() {
		body := strings.TrimSpace(resp.String())
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return fmt.Errorf("form relay returned %d: %s", resp.StatusCode(), body)
	}

	s.logger.Info("Application posted to form relay", map[string]interface{}{
		"reference":   sub.Reference,
		"status":      resp.StatusCode(),
		"attachments": len(attachments),
	})
	return nil
}

func (s *Service) target() string {
	return strings.TrimRight(s.config.Endpoint, "/") + "/" + url.PathEscape(s.config.OperatorEmail)
}

// formFields adds the relay's control fields to the flattened submission.
func (s *Service) formFields(sub *models.Submission) map[string]string {
	fields := sub.Values()
	fields["_subject"] = sub.Subject(s.config.Subject)
	fields["_template"] = "table"
	fields["_captcha"] = "false"
	if email := sub.Value("email"); strings.Contains(email, "@") {
		fields["_replyto"] = email
	}
	return fields
}
