// Package status computes the discrete UI states of a package data entry.
package status

import "github.com/quantmind-br/pkgstatus/internal/core"

// PrimaryStatus is the top-level state used to select a package's rendering
type PrimaryStatus string

const (
	// from package state
	PrimaryInstalling PrimaryStatus = "installing"
	PrimaryUpdating   PrimaryStatus = "updating"
	PrimaryRemoving   PrimaryStatus = "removing"
	PrimaryRestoring  PrimaryStatus = "restoring"

	// from main status
	PrimaryStarting  PrimaryStatus = "starting"
	PrimaryRunning   PrimaryStatus = "running"
	PrimaryStopping  PrimaryStatus = "stopping"
	PrimaryStopped   PrimaryStatus = "stopped"
	PrimaryBackingUp PrimaryStatus = "backing-up"

	// from config
	PrimaryNeedsConfig PrimaryStatus = "needs-config"
)

// HealthStatus summarises the health checks of a running package.
// HealthNone means there is nothing to report.
type HealthStatus string

const (
	HealthNone     HealthStatus = ""
	HealthFailure  HealthStatus = "failure"
	HealthWaiting  HealthStatus = "waiting"
	HealthStarting HealthStatus = "starting"
	HealthLoading  HealthStatus = "loading"
	HealthHealthy  HealthStatus = "healthy"
)

// DependencyStatus summarises whether required dependencies are satisfied.
// DependencyNone means the package has no current dependencies.
type DependencyStatus string

const (
	DependencyNone      DependencyStatus = ""
	DependencyWarning   DependencyStatus = "warning"
	DependencySatisfied DependencyStatus = "satisfied"
)

// PackageStatus is the set of sub-statuses derived from an entry
type PackageStatus struct {
	Primary    PrimaryStatus    `json:"primary"`
	Health     HealthStatus     `json:"health,omitempty"`
	Dependency DependencyStatus `json:"dependency,omitempty"`
}

// Render derives the package status from an entry. A nil entry yields
// the zero PackageStatus.
func Render(entry *core.PackageDataEntry) PackageStatus {
	if entry == nil {
		return PackageStatus{}
	}

	if entry.State != core.StateInstalled || entry.Installed == nil {
		return PackageStatus{Primary: PrimaryStatus(entry.State)}
	}

	installed := entry.Installed
	return PackageStatus{
		Primary:    primaryStatus(installed.Status),
		Health:     healthStatus(installed.Status, hasHealthChecks(entry)),
		Dependency: dependencyStatus(installed),
	}
}

func primaryStatus(st core.Status) PrimaryStatus {
	if !st.Configured {
		return PrimaryNeedsConfig
	}
	return PrimaryStatus(st.Main.Status)
}

func dependencyStatus(installed *core.InstalledPackageDataEntry) DependencyStatus {
	if len(installed.CurrentDependencies) == 0 {
		return DependencyNone
	}
	for _, depErr := range installed.Status.DependencyErrors {
		if depErr != nil {
			return DependencyWarning
		}
	}
	return DependencySatisfied
}

func healthStatus(st core.Status, declared bool) HealthStatus {
	if st.Main.Status != core.MainRunning || st.Main.Health == nil {
		return HealthNone
	}

	results := st.Main.Health
	if anyResult(results, core.HealthResultFailure) {
		return HealthFailure
	}
	if len(results) == 0 && declared {
		return HealthWaiting
	}
	if anyResult(results, core.HealthResultLoading) {
		return HealthLoading
	}
	if anyResult(results, core.HealthResultStarting, "") {
		return HealthStarting
	}
	return HealthHealthy
}

func anyResult(results map[string]core.HealthCheckResult, want ...core.HealthResult) bool {
	for _, res := range results {
		for _, w := range want {
			if res.Result == w {
				return true
			}
		}
	}
	return false
}

func hasHealthChecks(entry *core.PackageDataEntry) bool {
	if entry.Installed != nil && len(entry.Installed.Manifest.HealthChecks) > 0 {
		return true
	}
	return len(entry.Manifest.HealthChecks) > 0
}
