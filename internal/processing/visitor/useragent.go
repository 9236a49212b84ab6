package visitor

import (
	"regexp"
	"strings"

	"github.com/IgorGrieder/clicktrack/internal/domain"
)

const (
	BrowserOther = "Other"
	OSOther      = "Other"
)

var (
	tabletPattern = regexp.MustCompile(`(?i)tablet|ipad|playbook|kindle|silk`)
	mobilePattern = regexp.MustCompile(`(?i)mobile|iphone|ipod|android|blackberry|opera mini|iemobile|windows phone`)
	androidMobile = regexp.MustCompile(`(?i)android.*mobile`)
)

// DeviceType classifies the user-agent. Tablets are tested first because many
// tablet user-agents also contain "Mobile".
func DeviceType(ua string) domain.DeviceType {
	if strings.TrimSpace(ua) == "" {
		return domain.DeviceUnknown
	}
	if isTablet(ua) {
		return domain.DeviceTablet
	}
	if mobilePattern.MatchString(ua) {
		return domain.DeviceMobile
	}
	return domain.DeviceDesktop
}

func isTablet(ua string) bool {
	if tabletPattern.MatchString(ua) {
		return true
	}
	lower := strings.ToLower(ua)
	return strings.Contains(lower, "android") && !androidMobile.MatchString(ua)
}

// Browser checks Firefox, Edge, Chrome, Safari, then Opera. Edge and Safari
// strings overlap with Chrome so the order matters.
func Browser(ua string) string {
	lower := strings.ToLower(ua)
	switch {
	case lower == "":
		return BrowserOther
	case strings.Contains(lower, "firefox") || strings.Contains(lower, "fxios"):
		return "Firefox"
	case strings.Contains(lower, "edg/") || strings.Contains(lower, "edge/") ||
		strings.Contains(lower, "edga/") || strings.Contains(lower, "edgios/"):
		return "Edge"
	case strings.Contains(lower, "chrome") || strings.Contains(lower, "crios"):
		return "Chrome"
	case strings.Contains(lower, "safari"):
		return "Safari"
	case strings.Contains(lower, "opera") || strings.Contains(lower, "opr/"):
		return "Opera"
	default:
		return BrowserOther
	}
}

// OS checks iOS markers before "Mac OS": iOS Safari advertises "like Mac OS X".
func OS(ua string) string {
	lower := strings.ToLower(ua)
	switch {
	case lower == "":
		return OSOther
	case strings.Contains(lower, "ipad"):
		return "iPadOS"
	case strings.Contains(lower, "iphone") || strings.Contains(lower, "ipod") ||
		strings.Contains(lower, "cpu os") || strings.Contains(lower, " ios "):
		return "iOS"
	case strings.Contains(lower, "mac os"):
		return "macOS"
	case strings.Contains(lower, "android"):
		return "Android"
	case strings.Contains(lower, "windows"):
		return "Windows"
	case strings.Contains(lower, "linux") || strings.Contains(lower, "x11"):
		return "Linux"
	default:
		return OSOther
	}
}
