package service

import (
	"net/url"
	"strings"
)

const whatsAppBase = "https://wa.me/?text="

// ShareLink builds the messaging-app deep link carrying message.
func ShareLink(message string) string {
	return whatsAppBase + escapeComponent(message)
}

// escapeComponent escapes s the way URI components are escaped in browsers:
// spaces become %20 rather than '+', and the unreserved marks !'()* are
// left alone.
func escapeComponent(s string) string {
	e := strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	return componentUnescaper.Replace(e)
}

var componentUnescaper = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
