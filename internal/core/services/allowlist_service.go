package services

import (
	"net/url"
	"strings"
)

// AllowListService authorizes proxy fetch targets by hostname. A target is
// allowed iff its hostname equals a rule or ends in "." + rule, so
// "evil-ttvnw.net.attacker.com" never matches a "ttvnw.net" rule. Rules
// are loaded once at startup and never mutated.
type AllowListService struct {
	rules []string
}

func NewAllowListService(rules []string) *AllowListService {
	normalized := make([]string, 0, len(rules))
	for _, rule := range rules {
		rule = strings.ToLower(strings.TrimSpace(rule))
		if rule != "" {
			normalized = append(normalized, rule)
		}
	}
	return &AllowListService{rules: normalized}
}

func (s *AllowListService) IsAllowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	for _, rule := range s.rules {
		if host == rule || strings.HasSuffix(host, "."+rule) {
			return true
		}
	}
	return false
}
