package detector

import (
	"strings"

	"github.com/SergeiKhy/shrinkurl/internal/models"
	"github.com/mssola/user_agent"
)

var (
	botKeywords    = []string{"bot", "crawler", "spider", "scraper", "curl", "wget"}
	tabletKeywords = []string{"ipad", "tablet", "kindle", "silk/", "playbook", "nexus 7", "nexus 9", "nexus 10"}
	mobileKeywords = []string{"mobile", "iphone", "ipod", "blackberry", "windows phone", "opera mini"}
)

// Classify определяет корзину для счётчика кликов.
// Всё, что не распознано как телефон или планшет (боты, пустой или битый заголовок), считается desktop.
func Classify(userAgent string) models.Device {
	if strings.TrimSpace(userAgent) == "" {
		return models.DeviceDesktop
	}

	ua := user_agent.New(userAgent)
	lower := strings.ToLower(userAgent)

	if ua.Bot() || containsAny(lower, botKeywords) {
		return models.DeviceDesktop
	}

	if containsAny(lower, tabletKeywords) {
		return models.DeviceTablet
	}

	// Android без токена Mobile - планшет
	if strings.Contains(lower, "android") {
		if strings.Contains(lower, "mobile") {
			return models.DeviceMobile
		}
		return models.DeviceTablet
	}

	if ua.Mobile() || containsAny(lower, mobileKeywords) {
		return models.DeviceMobile
	}

	return models.DeviceDesktop
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
