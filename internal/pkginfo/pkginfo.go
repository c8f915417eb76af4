// Package pkginfo projects package data entries into view-models for
// list and detail rendering.
package pkginfo

import (
	"github.com/quantmind-br/pkgstatus/internal/core"
	"github.com/quantmind-br/pkgstatus/internal/progress"
	"github.com/quantmind-br/pkgstatus/internal/status"
)

// PkgInfo is the derived view of one package. It is recomputed on every
// read and never stored. Live updates are not tracked here; callers hold a
// store.Subscription for that.
type PkgInfo struct {
	Entry            *core.PackageDataEntry `json:"entry"`
	PrimaryRendering status.StatusRendering `json:"primary-rendering"`
	InstallProgress  *progress.ProgressData `json:"install-progress"`
	Error            bool                   `json:"error"`
}

// GetPackageInfo derives the PkgInfo for entry. It has no side effects.
// Error is set when health checks are failing or a dependency has issues;
// use status.Render to tell the two apart.
func GetPackageInfo(entry *core.PackageDataEntry) PkgInfo {
	statuses := status.Render(entry)

	var ip *core.InstallProgress
	if entry != nil {
		ip = entry.InstallProgress
	}

	return PkgInfo{
		Entry:            entry,
		PrimaryRendering: status.PrimaryRendering(statuses.Primary),
		InstallProgress:  progress.PackageLoadingProgress(ip),
		Error: statuses.Health == status.HealthFailure ||
			statuses.Dependency == status.DependencyWarning,
	}
}

// GetAll derives PkgInfo for every entry, preserving order
func GetAll(entries []*core.PackageDataEntry) []PkgInfo {
	infos := make([]PkgInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, GetPackageInfo(entry))
	}
	return infos
}
