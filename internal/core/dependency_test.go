package core

import (
	"testing"
	"time"
)

func TestDependencyError_Merge(t *testing.T) {
	checkTime := time.Date(2021, 5, 11, 18, 21, 29, 0, time.UTC)

	tests := []struct {
		name     string
		a, b     *DependencyError
		wantType DependencyErrorType
	}{
		{"nil left", nil, NotRunning(), DepNotRunning},
		{"nil right", NotRunning(), nil, DepNotRunning},
		{"not installed beats version", IncorrectVersion(">=1.0", "0.9"), NotInstalled(), DepNotInstalled},
		{"version beats config", ConfigUnsatisfied("x"), IncorrectVersion(">=1.0", "0.9"), DepIncorrectVersion},
		{"config beats not running", NotRunning(), ConfigUnsatisfied("x"), DepConfigUnsatisfied},
		{"not running beats health", HealthChecksFailed(nil), NotRunning(), DepNotRunning},
		{"same kind keeps left", IncorrectVersion("a", "b"), IncorrectVersion("c", "d"), DepIncorrectVersion},
		{"health with health", HealthChecksFailed(map[string]HealthCheckResult{
			"rpc": {Time: checkTime, Result: HealthResultFailure},
		}), HealthChecksFailed(map[string]HealthCheckResult{
			"p2p": {Time: checkTime, Result: HealthResultLoading},
		}), DepHealthChecksFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Merge(tt.b)
			if got == nil {
				t.Fatal("Merge() returned nil")
			}
			if got.Type != tt.wantType {
				t.Errorf("Merge() type = %q, want %q", got.Type, tt.wantType)
			}
		})
	}
}

func TestDependencyError_MergeJoinsDetails(t *testing.T) {
	got := ConfigUnsatisfied("pruning must be manual").Merge(ConfigUnsatisfied("txindex required"))
	if got.Error != "pruning must be manual\ntxindex required" {
		t.Errorf("Merge() error = %q", got.Error)
	}

	left := HealthChecksFailed(map[string]HealthCheckResult{"rpc": {Result: HealthResultFailure}})
	right := HealthChecksFailed(map[string]HealthCheckResult{"p2p": {Result: HealthResultStarting}})
	merged := left.Merge(right)
	if len(merged.Failures) != 2 {
		t.Errorf("Merge() failures = %d, want 2", len(merged.Failures))
	}
	if len(left.Failures) != 1 {
		t.Error("Merge() must not modify its receiver")
	}

	v := IncorrectVersion("a", "b")
	if got := v.Merge(IncorrectVersion("c", "d")); got.Expected != "a" {
		t.Errorf("Merge() expected = %q, want a", got.Expected)
	}
}

func TestDependencyError_String(t *testing.T) {
	checkTime := time.Date(2021, 5, 11, 18, 21, 29, 0, time.UTC)

	tests := []struct {
		name string
		err  *DependencyError
		want string
	}{
		{"nil", nil, ""},
		{"not installed", NotInstalled(), "Not Installed"},
		{"version", IncorrectVersion(">=0.21", "0.20.1"), "Incorrect Version: Expected >=0.21, Received 0.20.1"},
		{"config", ConfigUnsatisfied("pruning"), "Configuration Requirements Not Satisfied: pruning"},
		{"not running", NotRunning(), "Not Running"},
		{"health", HealthChecksFailed(map[string]HealthCheckResult{
			"rpc": {Time: checkTime, Result: HealthResultLoading},
			"p2p": {Time: checkTime, Result: HealthResultFailure},
		}), "Failed Health Check(s): p2p @ 2021-05-11T18:21:29Z failure, rpc @ 2021-05-11T18:21:29Z loading"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstallProgress_IsEmpty(t *testing.T) {
	var nilProgress *InstallProgress
	if !nilProgress.IsEmpty() {
		t.Error("nil progress should be empty")
	}
	if !(&InstallProgress{}).IsEmpty() {
		t.Error("zero progress should be empty")
	}
	if (&InstallProgress{Size: 100}).IsEmpty() {
		t.Error("progress with size should not be empty")
	}
}

func TestPackageDataEntry_ID(t *testing.T) {
	var entry *PackageDataEntry
	if entry.ID() != "" {
		t.Error("nil entry should have empty id")
	}
	entry = &PackageDataEntry{Manifest: Manifest{ID: "bitcoind"}}
	if entry.ID() != "bitcoind" {
		t.Errorf("ID() = %q, want bitcoind", entry.ID())
	}
}
