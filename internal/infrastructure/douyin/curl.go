package douyin

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"douyin_youtube_tool/internal/domain"
)

var (
	quotedURLPattern = regexp.MustCompile(`curl\s+['"]([^'"]+)['"]`)
	headerPattern    = regexp.MustCompile(`-H\s+['"]([^:'"]+):\s*([^'"]*)['"]`)
	cookiePattern    = regexp.MustCompile(`(?:-b|--cookie)\s+['"]([^'"]+)['"]`)
)

// ParseCurl converts a pasted cURL command into a reusable request template.
// The URL is the first quoted token after the curl keyword, or the first
// non-flag token when unquoted. Duplicate -H names follow last-write-wins,
// and a -b cookie string overwrites any Cookie header given via -H.
func ParseCurl(command string) (*domain.RequestTemplate, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, domain.NewFault(domain.FaultValidation, "parse curl",
			errors.New("empty command"))
	}

	url := extractURL(command)
	if url == "" {
		return nil, domain.NewFault(domain.FaultValidation, "parse curl",
			errors.New("no URL found in cURL command"))
	}

	headers := make(map[string]string)
	for _, match := range headerPattern.FindAllStringSubmatch(command, -1) {
		name := strings.TrimSpace(match[1])
		value := strings.TrimSpace(match[2])
		if name == "" {
			continue
		}
		headers[name] = value
	}

	// -b takes precedence over a Cookie header passed via -H
	if match := cookiePattern.FindStringSubmatch(command); match != nil {
		headers["Cookie"] = strings.TrimSpace(match[1])
	}

	return &domain.RequestTemplate{
		URL:     url,
		Headers: headers,
	}, nil
}

func extractURL(command string) string {
	if match := quotedURLPattern.FindStringSubmatch(command); match != nil {
		return match[1]
	}

	fields := strings.Fields(command)
	for i, field := range fields {
		if field != "curl" {
			continue
		}
		for _, candidate := range fields[i+1:] {
			if strings.HasPrefix(candidate, "-") {
				break
			}
			return strings.Trim(candidate, `'"`)
		}
		break
	}
	return ""
}
