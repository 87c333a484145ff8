// Package sesmail emails finished applications straight to the operator through Amazon SES,
// with the uploaded documents attached.
package sesmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"nominee-applications/internal/common/aws"
	"nominee-applications/internal/common/logger"
	"nominee-applications/internal/delivery"
	"nominee-applications/internal/models"
)

const base64LineLength = 76

type ServiceDependencies struct {
	SES       aws.SESService
	Documents delivery.DocumentSource
	Logger    logger.Logger
}

type Service struct {
	config *Config
	ses    aws.SESService
	docs   delivery.DocumentSource
	logger logger.Logger
	now    func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("sesmail config: %w", err)
	}
	if deps.SES == nil {
		return nil, fmt.Errorf("sesmail: SES client is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	return &Service{
		config: config,
		ses:    deps.SES,
		docs:   deps.Documents,
		logger: deps.Logger,
		now:    time.Now,
	}, nil
}

func (s *Service) Name() string { return "ses" }

func (s *Service) Deliver(ctx context.Context, sub *models.Submission) error {
	attachments, err := delivery.LoadAttachments(ctx, s.docs, sub.Attachments)
	if err != nil {
		return err
	}

	raw, err := s.buildRawMessage(sub, attachments)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	out, err := s.ses.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       sdkaws.String(s.config.FromEmail),
		Destinations: []string{s.config.OperatorEmail},
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	fields := map[string]interface{}{
		"reference":   sub.Reference,
		"attachments": len(attachments),
	}
	if out != nil && out.MessageId != nil {
		fields["messageId"] = *out.MessageId
	}
	s.logger.Info("Application emailed to operator", fields)
	return nil
}

// buildRawMessage renders a multipart/mixed message: the plain-text summary followed by one
// base64 part per document.
func (s *Service) buildRawMessage(sub *models.Submission, attachments []delivery.Attachment) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeQuotedPrintable(textPart, sub.Text()); err != nil {
		return nil, err
	}

	for _, a := range attachments {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(a.ContentType, map[string]string{"name": a.FileName})},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName})},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(wrapBase64(a.Data)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.config.FromEmail))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", s.config.OperatorEmail))
	if email := sub.Value("email"); strings.Contains(email, "@") {
		msg.WriteString(fmt.Sprintf("Reply-To: %s\r\n", email))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", sub.Subject(s.config.Subject))))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", s.now().UTC().Format(time.RFC1123Z)))
	msg.WriteString(fmt.Sprintf("X-Application-Reference: %s\r\n", sub.Reference))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", mw.Boundary()))
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return []byte(msg.String()), nil
}

func writeQuotedPrintable(w io.Writer, text string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(strings.ReplaceAll(text, "\n", "\r\n"))); err != nil {
		return err
	}
	return qp.Close()
}

func wrapBase64(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	var out bytes.Buffer
	for len(encoded) > base64LineLength {
		out.WriteString(encoded[:base64LineLength])
		out.WriteString("\r\n")
		encoded = encoded[base64LineLength:]
	}
	out.WriteString(encoded)
	out.WriteString("\r\n")
	return out.Bytes()
}
