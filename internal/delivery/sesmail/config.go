package sesmail

import (
	"fmt"
	"net/mail"
)

type Config struct {
	FromEmail     string
	OperatorEmail string
	Subject       string
}

func DefaultConfig() *Config {
	return &Config{Subject: "New Nominee Director Application"}
}

func (c *Config) Validate() error {
	if _, err := mail.ParseAddress(c.FromEmail); err != nil {
		return fmt.Errorf("invalid from email %q: %w", c.FromEmail, err)
	}
	if _, err := mail.ParseAddress(c.OperatorEmail); err != nil {
		return fmt.Errorf("invalid operator email %q: %w", c.OperatorEmail, err)
	}
	return nil
}
