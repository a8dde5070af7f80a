package chatbot

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is the single answer endpoint shared by every chatbot; the
// UUID query parameter selects the knowledge base behind it.
const DefaultBaseURL = "https://investor.uniserved.com/api/ask/"

// Descriptor captures the metadata the widget shows for one chatbot and the
// endpoint questions are posted to.
type Descriptor struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	UUID        string `json:"uuid,omitempty" yaml:"uuid"`
	Description string `json:"description,omitempty" yaml:"description"`
	Endpoint    string `json:"endpoint" yaml:"endpoint"`
}

// EndpointFor builds the answer URL for a routing key. An empty key yields the
// bare base URL.
func EndpointFor(baseURL, routingKey string) string {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if routingKey == "" {
		return base
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "uuid=" + url.QueryEscape(routingKey)
}

// Seed provides the Uniserved chatbots. The first entry is the default.
func Seed(baseURL string) []Descriptor {
	items := []Descriptor{
		{
			ID:          "1",
			Name:        "Uniserved Investor Chatbot",
			UUID:        "a1b2c3d4-e5f6-4789-a012-3456789abcde",
			Description: "Get instant answers about Uniserved investments, financial reports, and investor relations.",
		},
		{
			ID:          "2",
			Name:        "Uniserved Support Chatbot",
			UUID:        "b2c3d4e5-f6a7-4890-b123-456789abcdef",
			Description: "Get help and support for your Uniserved account, services, and technical issues.",
		},
		{
			ID:          "3",
			Name:        "Uniserved Sales Chatbot",
			UUID:        "c3d4e5f6-a7b8-4901-c234-56789abcdef0",
			Description: "Learn about Uniserved products, pricing, and how to get started with our services.",
		},
		{
			ID:          "4",
			Name:        "Uniserved Help Chatbot",
			UUID:        "d4e5f6a7-b8c9-4012-d345-6789abcdef01",
			Description: "Find answers to common questions and get assistance with Uniserved services.",
		},
		{
			ID:          "5",
			Name:        "Uniserved General Chatbot",
			UUID:        "e5f6a7b8-c9d0-4123-e456-789abcdef012",
			Description: "Ask general questions about Uniserved, our services, and how we can help you.",
		},
		{
			ID:          "6",
			Name:        "Uniserved Customer Chatbot",
			UUID:        "f6a7b8c9-d0e1-4234-f567-89abcdef0123",
			Description: "Customer support and assistance for all your Uniserved needs.",
		},
	}

	for i := range items {
		items[i].Endpoint = EndpointFor(baseURL, items[i].UUID)
	}
	return items
}
