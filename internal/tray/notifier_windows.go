//go:build windows

package tray

import (
	"github.com/go-toast/toast"
)

// ToastNotifier shows Windows toasts whose click relaunches the app with
// the activation URL, which the single-instance lock forwards to us.
type ToastNotifier struct {
	appID string
}

// NewNotifier creates the platform notifier
func NewNotifier(appID string) Notifier {
	return &ToastNotifier{appID: appID}
}

func (t *ToastNotifier) Notify(id, title, message, iconPath string) error {
	n := toast.Notification{
		AppID:               t.appID,
		Title:               title,
		Message:             message,
		Icon:                iconPath,
		ActivationType:      "protocol",
		ActivationArguments: ActivationURL(id),
	}
	return n.Push()
}
