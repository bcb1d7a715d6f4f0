package useragent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Parser wraps the User-Agent parser with device type detection
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo represents parsed device information
type DeviceInfo struct {
	DeviceType string // mobile, desktop, tablet, bot, unknown
	Browser    string // Chrome, Firefox, Safari, etc.
	OS         string // Windows, iOS, Android, etc.
	IsBot      bool
	Raw        string // Original User-Agent string
}

var botIndicators = []string{
	"googlebot", "bingbot", "slurp", "duckduckbot", "baiduspider",
	"yandexbot", "facebookexternalhit", "twitterbot", "linkedinbot",
	"whatsapp", "telegrambot", "skypeuripreview", "bot", "crawler",
	"spider", "scraper", "headlesschrome", "phantomjs", "puppeteer",
	"playwright", "selenium", "curl/", "wget/", "python-requests",
	"go-http-client", "okhttp", "gptbot", "claudebot", "ccbot",
}

var (
	mobileDevices = []string{"iphone", "android", "blackberry", "windows phone", "mobile", "phone"}
	tabletDevices = []string{"ipad", "tablet", "kindle", "surface"}
	mobileOS      = []string{"ios", "android", "windows phone", "blackberry os", "firefox os", "sailfish os"}
	desktopOS     = []string{"windows", "mac os x", "macos", "linux", "ubuntu", "chrome os", "freebsd", "openbsd", "netbsd", "fedora", "debian"}
)

// NewParser creates a parser from a regexes.yaml file, or from the definitions
// bundled with uap-go when regexFilePath is empty.
func NewParser(regexFilePath string, log *zap.Logger) (*Parser, error) {
	if regexFilePath == "" {
		return NewDefaultParser(log), nil
	}

	regexBytes, err := os.ReadFile(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read regexes file %s: %w", regexFilePath, err)
	}

	parser, err := uaparser.NewFromBytes(regexBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent parser initialized", zap.String("regexes_file", regexFilePath))

	return &Parser{
		parser: parser,
		log:    log,
	}, nil
}

// NewDefaultParser creates a parser from the bundled regex definitions.
func NewDefaultParser(log *zap.Logger) *Parser {
	return &Parser{
		parser: uaparser.NewFromSaved(),
		log:    log,
	}
}

// ParseUserAgent parses a User-Agent string and returns detailed device information
func (p *Parser) ParseUserAgent(userAgent string) *DeviceInfo {
	if strings.TrimSpace(userAgent) == "" {
		return &DeviceInfo{
			DeviceType: "unknown",
			Browser:    "unknown",
			OS:         "unknown",
		}
	}

	client := p.parser.Parse(userAgent)

	deviceInfo := &DeviceInfo{
		Browser: formatString(client.UserAgent.Family),
		OS:      formatString(client.Os.Family),
		Raw:     userAgent,
	}
	deviceInfo.IsBot = isBot(client, userAgent)
	deviceInfo.DeviceType = determineDeviceType(client, userAgent, deviceInfo.IsBot)

	p.log.Debug("parsed User-Agent",
		zap.String("device_type", deviceInfo.DeviceType),
		zap.String("browser", deviceInfo.Browser),
		zap.String("os", deviceInfo.OS),
		zap.Bool("bot", deviceInfo.IsBot),
	)

	return deviceInfo
}

// determineDeviceType determines the device type based on parsed client info and raw User-Agent
func determineDeviceType(client *uaparser.Client, userAgent string, bot bool) string {
	if bot {
		return "bot"
	}

	deviceFamily := client.Device.Family
	if deviceFamily != "" && deviceFamily != "Other" {
		if containsAny(deviceFamily, tabletDevices) {
			return "tablet"
		}
		if containsAny(deviceFamily, mobileDevices) {
			return "mobile"
		}
	}

	osFamily := client.Os.Family
	if containsAny(osFamily, mobileOS) {
		if isTabletOS(osFamily, userAgent) {
			return "tablet"
		}
		return "mobile"
	}

	if containsAny(osFamily, desktopOS) {
		return "desktop"
	}

	return "unknown"
}

// isBot checks if the User-Agent represents a bot, crawler or automation client
func isBot(client *uaparser.Client, userAgent string) bool {
	if client.Device.Family == "Spider" {
		return true
	}
	return containsAny(client.UserAgent.Family, botIndicators) || containsAny(userAgent, botIndicators)
}

// isTabletOS checks if the OS/User-Agent indicates a tablet
func isTabletOS(osFamily, userAgent string) bool {
	if containsFold(osFamily, "ios") {
		return containsFold(userAgent, "ipad")
	}
	// Android tablets typically don't have "Mobile" in User-Agent
	if containsFold(osFamily, "android") {
		return !containsFold(userAgent, "mobile")
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if containsFold(s, n) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	if s == "" || substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// formatString formats a string, replacing empty with "unknown"
func formatString(s string) string {
	if s == "" || s == "Other" {
		return "unknown"
	}
	return s
}
