// Package smsalert texts the operator after an application has been delivered. It wraps
// another delivery backend and never turns a delivered application into a failure.
package smsalert

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"nominee-applications/internal/common/aws"
	"nominee-applications/internal/common/logger"
	"nominee-applications/internal/models"
)

// Backend is the delivery backend being decorated.
type Backend interface {
	Name() string
	Deliver(ctx context.Context, sub *models.Submission) error
}

type Config struct {
	PhoneNumber string
	SenderID    string
}

type Alerter struct {
	next   Backend
	sns    aws.SNSService
	config Config
	logger logger.Logger
}

func Wrap(next Backend, client aws.SNSService, config Config, log logger.Logger) (*Alerter, error) {
	if next == nil || client == nil {
		return nil, fmt.Errorf("smsalert: backend and SNS client are required")
	}
	if config.PhoneNumber == "" {
		return nil, fmt.Errorf("smsalert: phone number is required")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Alerter{next: next, sns: client, config: config, logger: log}, nil
}

func (a *Alerter) Name() string { return a.next.Name() }

func (a *Alerter) Deliver(ctx context.Context, sub *models.Submission) error {
	if err := a.next.Deliver(ctx, sub); err != nil {
		return err
	}

	input := &sns.PublishInput{
		PhoneNumber: sdkaws.String(a.config.PhoneNumber),
		Message:     sdkaws.String(Message(sub)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: sdkaws.String("String"), StringValue: sdkaws.String("Transactional")},
		},
	}
	if a.config.SenderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    sdkaws.String("String"),
			StringValue: sdkaws.String(a.config.SenderID),
		}
	}

	if _, err := a.sns.Publish(ctx, input); err != nil {
		a.logger.Warn("Operator SMS alert failed", map[string]interface{}{
			"reference": sub.Reference,
			"error":     err.Error(),
		})
		return nil
	}
	a.logger.Debug("Operator SMS alert sent", map[string]interface{}{"reference": sub.Reference})
	return nil
}

// Message is the alert text. It names the applicant and reference only.
func Message(sub *models.Submission) string {
	return sub.Subject("New nominee director application")
}
