// Package workflow hands finished applications to a Camunda process: one process instance per
// submission, with the rendered values as process variables.
package workflow

import (
	"context"
	"fmt"

	"nominee-applications/internal/common/logger"
	"nominee-applications/internal/models"
)

const DefaultProcessID = "nominee-application"

// InstanceCreator starts process instances. *camunda.Client satisfies it.
type InstanceCreator interface {
	CreateInstance(ctx context.Context, processID string, vars map[string]interface{}) (int64, error)
}

type Config struct {
	ProcessID     string
	OperatorEmail string
}

type Service struct {
	config  Config
	creator InstanceCreator
	logger  logger.Logger
}

func NewService(creator InstanceCreator, config Config, log logger.Logger) (*Service, error) {
	if creator == nil {
		return nil, fmt.Errorf("workflow: instance creator is required")
	}
	if config.ProcessID == "" {
		config.ProcessID = DefaultProcessID
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{config: config, creator: creator, logger: log}, nil
}

func (s *Service) Name() string { return "workflow" }

func (s *Service) Deliver(ctx context.Context, sub *models.Submission) error {
	key, err := s.creator.CreateInstance(ctx, s.config.ProcessID, Variables(sub, s.config.OperatorEmail))
	if err != nil {
		return fmt.Errorf("start process %s: %w", s.config.ProcessID, err)
	}
	s.logger.Info("Application process started", map[string]interface{}{
		"reference":          sub.Reference,
		"processId":          s.config.ProcessID,
		"processInstanceKey": key,
	})
	return nil
}

// Variables builds the process variables: every rendered value, the operator mailbox, the
// plain-text body and the document references. Document bytes stay in the document store.
func Variables(sub *models.Submission, operatorEmail string) map[string]interface{} {
	vars := make(map[string]interface{}, len(sub.Attachments)+32)
	for k, v := range sub.Values() {
		vars[k] = v
	}
	vars["operatorEmail"] = operatorEmail
	vars["summaryText"] = sub.Text()

	docs := make([]map[string]interface{}, 0, len(sub.Attachments))
	for _, a := range sub.Attachments {
		docs = append(docs, map[string]interface{}{
			"key":         a.Key,
			"fileName":    a.FileName,
			"contentType": a.ContentType,
			"size":        a.Size,
		})
	}
	vars["documents"] = docs
	return vars
}
