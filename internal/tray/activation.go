package tray

import (
	"net/url"
	"strings"
)

// ProtocolScheme is the URL scheme used to route balloon clicks back to the
// running instance
const ProtocolScheme = "grape"

const notificationHost = "notification"

// ActivationURL is the protocol URL launched when balloon id is clicked
func ActivationURL(id string) string {
	return ProtocolScheme + "://" + notificationHost + "/" + url.PathEscape(id)
}

// NotificationIDFromArgs finds an activation URL in command-line args
func NotificationIDFromArgs(args []string) (string, bool) {
	for _, arg := range args {
		u, err := url.Parse(arg)
		if err != nil || u.Scheme != ProtocolScheme || u.Host != notificationHost {
			continue
		}
		id := strings.Trim(u.Path, "/")
		if id != "" {
			return id, true
		}
	}
	return "", false
}
