package core

import "time"

// PackageState is the lifecycle state of a package data entry
type PackageState string

const (
	StateInstalling PackageState = "installing"
	StateInstalled  PackageState = "installed"
	StateUpdating   PackageState = "updating"
	StateRemoving   PackageState = "removing"
	StateRestoring  PackageState = "restoring"
)

// MainStatusKind is the runtime status of an installed package
type MainStatusKind string

const (
	MainStarting  MainStatusKind = "starting"
	MainRunning   MainStatusKind = "running"
	MainStopping  MainStatusKind = "stopping"
	MainStopped   MainStatusKind = "stopped"
	MainBackingUp MainStatusKind = "backing-up"
)

// HealthResult is the outcome of a single health check
type HealthResult string

const (
	HealthResultStarting HealthResult = "starting"
	HealthResultLoading  HealthResult = "loading"
	HealthResultDisabled HealthResult = "disabled"
	HealthResultSuccess  HealthResult = "success"
	HealthResultFailure  HealthResult = "failure"
)

// Database is the package-data section of the replicated document store
type Database struct {
	PackageData map[string]*PackageDataEntry `json:"package-data" yaml:"package-data"`
}

// PackageDataEntry represents one installed or installable package
type PackageDataEntry struct {
	State           PackageState               `json:"state" yaml:"state"`
	Manifest        Manifest                   `json:"manifest" yaml:"manifest"`
	Installed       *InstalledPackageDataEntry `json:"installed,omitempty" yaml:"installed,omitempty"`
	InstallProgress *InstallProgress           `json:"install-progress,omitempty" yaml:"install-progress,omitempty"`
}

// ID returns the package id from the manifest
func (e *PackageDataEntry) ID() string {
	if e == nil {
		return ""
	}
	return e.Manifest.ID
}

// Manifest describes a package and what it depends on
type Manifest struct {
	ID           string                     `json:"id" yaml:"id"`
	Title        string                     `json:"title,omitempty" yaml:"title,omitempty"`
	Version      string                     `json:"version,omitempty" yaml:"version,omitempty"`
	Dependencies map[string]DepInfo         `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	HealthChecks map[string]HealthCheckSpec `json:"health-checks,omitempty" yaml:"health-checks,omitempty"`
}

// HealthCheckSpec declares a health check in a manifest
type HealthCheckSpec struct {
	Name           string `json:"name" yaml:"name"`
	SuccessMessage string `json:"success-message,omitempty" yaml:"success-message,omitempty"`
}

// DepInfo is a dependency requirement declared in a manifest
type DepInfo struct {
	Version     string `json:"version" yaml:"version"`
	Optional    string `json:"optional,omitempty" yaml:"optional,omitempty"`
	Recommended bool   `json:"recommended,omitempty" yaml:"recommended,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Critical    bool   `json:"critical,omitempty" yaml:"critical,omitempty"`
}

// InstalledPackageDataEntry holds data only present once a package is installed
type InstalledPackageDataEntry struct {
	Manifest            Manifest                         `json:"manifest" yaml:"manifest"`
	Status              Status                           `json:"status" yaml:"status"`
	CurrentDependencies map[string]CurrentDependencyInfo `json:"current-dependencies,omitempty" yaml:"current-dependencies,omitempty"`
}

// CurrentDependencyInfo lists the health checks a dependent relies on
type CurrentDependencyInfo struct {
	HealthChecks []string `json:"health-checks,omitempty" yaml:"health-checks,omitempty"`
}

// Status is the status block of an installed package
type Status struct {
	Configured       bool                        `json:"configured" yaml:"configured"`
	Main             MainStatus                  `json:"main" yaml:"main"`
	DependencyErrors map[string]*DependencyError `json:"dependency-errors,omitempty" yaml:"dependency-errors,omitempty"`
}

// MainStatus is the runtime status and health checks of an installed package
type MainStatus struct {
	Status  MainStatusKind               `json:"status" yaml:"status"`
	Started *time.Time                   `json:"started,omitempty" yaml:"started,omitempty"`
	Health  map[string]HealthCheckResult `json:"health,omitempty" yaml:"health,omitempty"`
}

// HealthCheckResult is the latest result of a named health check
type HealthCheckResult struct {
	Name    string       `json:"name,omitempty" yaml:"name,omitempty"`
	Time    time.Time    `json:"time" yaml:"time"`
	Result  HealthResult `json:"result" yaml:"result"`
	Message string       `json:"message,omitempty" yaml:"message,omitempty"`
}

// InstallProgress is incremental progress data for an in-flight install or update
type InstallProgress struct {
	Size               int64 `json:"size" yaml:"size"`
	Downloaded         int64 `json:"downloaded" yaml:"downloaded"`
	DownloadComplete   bool  `json:"download-complete" yaml:"download-complete"`
	Validated          int64 `json:"validated" yaml:"validated"`
	ValidationComplete bool  `json:"validation-complete" yaml:"validation-complete"`
	Unpacked           int64 `json:"unpacked" yaml:"unpacked"`
	UnpackComplete     bool  `json:"unpack-complete" yaml:"unpack-complete"`
}

// IsEmpty reports whether the progress record carries no data
func (p *InstallProgress) IsEmpty() bool {
	return p == nil || *p == InstallProgress{}
}

// Exit codes
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitInvalidArgs = 2
	ExitNotFound    = 3
	ExitDatabase    = 5
	ExitInterrupted = 130
)
