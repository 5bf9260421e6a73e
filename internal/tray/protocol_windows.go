//go:build windows

package tray

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// RegisterProtocol points the activation scheme at exe for the current user
func RegisterProtocol(exe string) error {
	base := `Software\Classes\` + ProtocolScheme

	key, _, err := registry.CreateKey(registry.CURRENT_USER, base, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create protocol key: %w", err)
	}
	defer key.Close()

	if err := key.SetStringValue("", "URL:Grape"); err != nil {
		return err
	}
	if err := key.SetStringValue("URL Protocol", ""); err != nil {
		return err
	}

	cmd, _, err := registry.CreateKey(registry.CURRENT_USER, base+`\shell\open\command`, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create command key: %w", err)
	}
	defer cmd.Close()

	return cmd.SetStringValue("", fmt.Sprintf(`"%s" "%%1"`, exe))
}
