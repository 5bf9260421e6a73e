//go:build !windows

package tray

import (
	"github.com/gen2brain/beeep"
)

// BeeepNotifier shows desktop notifications. Clicks are not reported on
// these platforms, so pending handlers simply get replaced.
type BeeepNotifier struct{}

// NewNotifier creates the platform notifier
func NewNotifier(_ string) Notifier {
	return BeeepNotifier{}
}

func (BeeepNotifier) Notify(_, title, message, iconPath string) error {
	return beeep.Notify(title, message, iconPath)
}
