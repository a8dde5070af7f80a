package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/uniserved/chatwidget/internal/model/access"
	"github.com/uniserved/chatwidget/internal/model/chatbot"
)

// TablesConfig points at an optional YAML file replacing the built-in tables.
type TablesConfig struct {
	File string
}

// Tables holds the static lookup tables the service starts with.
type Tables struct {
	Chatbots    []chatbot.Descriptor
	AccessCodes []access.Entry
}

type tablesFile struct {
	BaseURL     string               `yaml:"baseUrl"`
	Chatbots    []chatbot.Descriptor `yaml:"chatbots"`
	AccessCodes map[string]string    `yaml:"accessCodes"`
}

// LoadTables returns the built-in tables, overridden section by section by
// cfg.File when set. Chatbots without an endpoint get one from the base URL.
func LoadTables(cfg TablesConfig, baseURL string) (Tables, error) {
	tables := Tables{
		Chatbots:    chatbot.Seed(baseURL),
		AccessCodes: access.Seed(),
	}
	if cfg.File == "" {
		return tables, nil
	}

	raw, err := os.ReadFile(cfg.File)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables file: %w", err)
	}

	var file tablesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Tables{}, fmt.Errorf("parse tables file %s: %w", cfg.File, err)
	}

	if file.BaseURL != "" {
		baseURL = file.BaseURL
	}
	if len(file.Chatbots) > 0 {
		for i, bot := range file.Chatbots {
			if bot.ID == "" {
				return Tables{}, fmt.Errorf("tables file %s: chatbot #%d has no id", cfg.File, i+1)
			}
			if bot.Endpoint == "" {
				file.Chatbots[i].Endpoint = chatbot.EndpointFor(baseURL, bot.UUID)
			}
		}
		tables.Chatbots = file.Chatbots
	} else if file.BaseURL != "" {
		tables.Chatbots = chatbot.Seed(baseURL)
	}

	if len(file.AccessCodes) > 0 {
		entries := make([]access.Entry, 0, len(file.AccessCodes))
		for phone, code := range file.AccessCodes {
			entries = append(entries, access.Entry{Phone: phone, Code: code})
		}
		tables.AccessCodes = entries
	}

	return tables, nil
}
