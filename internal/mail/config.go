// Package mail holds the IMAP and SMTP adapters and the helpers that turn
// raw MIME content into the plain text the classifier reads.
package mail

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/sentinel/internal/common"
)

// ChannelConfig describes one IMAP mailbox to poll.
type ChannelConfig struct {
	Name     string `mapstructure:"name"`
	Host     string `mapstructure:"host"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Mailbox  string `mapstructure:"mailbox"`
	Port     int    `mapstructure:"port"`
	TLS      bool   `mapstructure:"tls"`
}

// Validate checks required fields and fills defaults.
func (c *ChannelConfig) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: channel %q has no host", common.ErrMissingConfig, c.Name)
	}
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("%w: channel %q has no username", common.ErrMissingConfig, c.Name)
	}
	if c.Name == "" {
		c.Name = c.Username
	}
	if c.Mailbox == "" {
		c.Mailbox = "INBOX"
	}
	if c.Port == 0 {
		c.Port = 993
		if !c.TLS {
			c.Port = 143
		}
	}
	return nil
}

// Addr returns host:port.
func (c ChannelConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// SMTPConfig describes the outbound relay.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	Port     int    `mapstructure:"port"`
	TLS      bool   `mapstructure:"tls"`
}

// Validate checks required fields and fills defaults.
func (c *SMTPConfig) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: smtp.host", common.ErrMissingConfig)
	}
	if c.From == "" {
		c.From = c.Username
	}
	if strings.TrimSpace(c.From) == "" {
		return fmt.Errorf("%w: smtp.from", common.ErrMissingConfig)
	}
	if c.Port == 0 {
		c.Port = 587
		if c.TLS {
			c.Port = 465
		}
	}
	return nil
}

// Addr returns host:port.
func (c SMTPConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
