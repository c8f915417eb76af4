package status

import (
	"testing"

	"github.com/quantmind-br/pkgstatus/internal/core"
	"github.com/stretchr/testify/assert"
)

func installedEntry(main core.MainStatusKind, health map[string]core.HealthCheckResult) *core.PackageDataEntry {
	return &core.PackageDataEntry{
		State:    core.StateInstalled,
		Manifest: core.Manifest{ID: "lnd"},
		Installed: &core.InstalledPackageDataEntry{
			Manifest: core.Manifest{ID: "lnd"},
			Status: core.Status{
				Configured: true,
				Main:       core.MainStatus{Status: main, Health: health},
			},
		},
	}
}

func TestRender_PrimaryFromState(t *testing.T) {
	tests := []struct {
		state core.PackageState
		want  PrimaryStatus
	}{
		{core.StateInstalling, PrimaryInstalling},
		{core.StateUpdating, PrimaryUpdating},
		{core.StateRemoving, PrimaryRemoving},
		{core.StateRestoring, PrimaryRestoring},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			got := Render(&core.PackageDataEntry{State: tt.state})
			assert.Equal(t, tt.want, got.Primary)
			assert.Equal(t, HealthNone, got.Health)
			assert.Equal(t, DependencyNone, got.Dependency)
		})
	}
}

func TestRender_InstalledWithoutInstalledData(t *testing.T) {
	got := Render(&core.PackageDataEntry{State: core.StateInstalled})
	assert.Equal(t, PrimaryStatus("installed"), got.Primary)
}

func TestRender_Nil(t *testing.T) {
	assert.Equal(t, PackageStatus{}, Render(nil))
}

func TestRender_PrimaryFromMainStatus(t *testing.T) {
	for _, main := range []core.MainStatusKind{
		core.MainStarting, core.MainRunning, core.MainStopping, core.MainStopped, core.MainBackingUp,
	} {
		got := Render(installedEntry(main, nil))
		assert.Equal(t, PrimaryStatus(main), got.Primary)
	}
}

func TestRender_NeedsConfig(t *testing.T) {
	entry := installedEntry(core.MainStopped, nil)
	entry.Installed.Status.Configured = false

	assert.Equal(t, PrimaryNeedsConfig, Render(entry).Primary)
}

func TestRender_Health(t *testing.T) {
	res := func(r core.HealthResult) core.HealthCheckResult { return core.HealthCheckResult{Result: r} }

	tests := []struct {
		name     string
		main     core.MainStatusKind
		health   map[string]core.HealthCheckResult
		declared bool
		want     HealthStatus
	}{
		{"not running", core.MainStopped, map[string]core.HealthCheckResult{"a": res(core.HealthResultFailure)}, false, HealthNone},
		{"no health data", core.MainRunning, nil, true, HealthNone},
		{"failure wins", core.MainRunning, map[string]core.HealthCheckResult{
			"a": res(core.HealthResultLoading), "b": res(core.HealthResultFailure),
		}, false, HealthFailure},
		{"empty but declared", core.MainRunning, map[string]core.HealthCheckResult{}, true, HealthWaiting},
		{"empty undeclared", core.MainRunning, map[string]core.HealthCheckResult{}, false, HealthHealthy},
		{"loading", core.MainRunning, map[string]core.HealthCheckResult{
			"a": res(core.HealthResultLoading), "b": res(core.HealthResultStarting),
		}, false, HealthLoading},
		{"starting", core.MainRunning, map[string]core.HealthCheckResult{
			"a": res(core.HealthResultSuccess), "b": res(core.HealthResultStarting),
		}, false, HealthStarting},
		{"missing result counts as starting", core.MainRunning, map[string]core.HealthCheckResult{
			"a": {},
		}, false, HealthStarting},
		{"disabled is healthy", core.MainRunning, map[string]core.HealthCheckResult{
			"a": res(core.HealthResultSuccess), "b": res(core.HealthResultDisabled),
		}, false, HealthHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := installedEntry(tt.main, tt.health)
			if tt.declared {
				entry.Installed.Manifest.HealthChecks = map[string]core.HealthCheckSpec{"a": {Name: "A"}}
			}
			assert.Equal(t, tt.want, Render(entry).Health)
		})
	}
}

func TestRender_Dependency(t *testing.T) {
	entry := installedEntry(core.MainRunning, nil)
	assert.Equal(t, DependencyNone, Render(entry).Dependency)

	entry.Installed.CurrentDependencies = map[string]core.CurrentDependencyInfo{"bitcoind": {}}
	assert.Equal(t, DependencySatisfied, Render(entry).Dependency)

	entry.Installed.Status.DependencyErrors = map[string]*core.DependencyError{"bitcoind": nil}
	assert.Equal(t, DependencySatisfied, Render(entry).Dependency)

	entry.Installed.Status.DependencyErrors["bitcoind"] = core.NotRunning()
	assert.Equal(t, DependencyWarning, Render(entry).Dependency)
}

func TestPrimaryRendering(t *testing.T) {
	for _, p := range PrimaryStatuses() {
		r, ok := LookupPrimaryRendering(p)
		assert.True(t, ok, "missing rendering for %s", p)
		assert.Equal(t, r, PrimaryRendering(p))
		assert.NotEmpty(t, r.Display)
	}

	assert.Equal(t, StatusRendering{Display: "Running", Color: ColorSuccess}, PrimaryRendering(PrimaryRunning))
	assert.Equal(t, StatusRendering{Display: "Removing", Color: ColorDanger, ShowDots: true}, PrimaryRendering(PrimaryRemoving))

	_, ok := LookupPrimaryRendering("exploded")
	assert.False(t, ok)
	assert.Equal(t, UnknownRendering, PrimaryRendering("exploded"))
}

func TestHealthAndDependencyRendering(t *testing.T) {
	_, ok := HealthRendering(HealthNone)
	assert.False(t, ok)

	r, ok := HealthRendering(HealthFailure)
	assert.True(t, ok)
	assert.Equal(t, ColorDanger, r.Color)

	_, ok = DependencyRendering(DependencyNone)
	assert.False(t, ok)

	r, ok = DependencyRendering(DependencyWarning)
	assert.True(t, ok)
	assert.Equal(t, "Issue", r.Display)
}
