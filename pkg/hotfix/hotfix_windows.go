//go:build windows
// +build windows

package hotfix

import (
	"context"
	"time"

	"github.com/windowsadmins/winapps/pkg/logging"
	"github.com/windowsadmins/winapps/pkg/retry"
	"github.com/yusufpapurcu/wmi"
)

type win32_QuickFixEngineering struct {
	Caption, Description, HotFixID, InstalledOn string
}

// List queries Win32_QuickFixEngineering for installed updates.
func List(ctx context.Context) ([]Hotfix, error) {
	var rows []win32_QuickFixEngineering
	logging.Debug("Querying WMI for installed QuickFixEngineering updates")

	cfg := retry.RetryConfig{MaxRetries: 3, InitialInterval: time.Second, Multiplier: 2}
	err := retry.Retry(ctx, cfg, func() error {
		rows = nil
		return wmi.Query(wmi.CreateQuery(&rows, ""), &rows)
	})
	if err != nil {
		return nil, err
	}

	hotfixes := make([]Hotfix, 0, len(rows))
	for _, r := range rows {
		hotfixes = append(hotfixes, Hotfix{
			HotFixID:    r.HotFixID,
			Description: r.Description,
			Caption:     r.Caption,
			InstalledOn: ParseInstalledOn(r.InstalledOn),
		})
	}
	Sort(hotfixes)
	return hotfixes, nil
}
