// Package progress normalizes install progress records into percentages.
package progress

import (
	"math"

	"github.com/quantmind-br/pkgstatus/internal/core"
)

// Phase weights of the overall install
const (
	DownloadWeight = 1.0
	ValidateWeight = 0.2
	UnpackWeight   = 0.7
)

// ProgressData is a summary of install progress in whole percent
type ProgressData struct {
	TotalProgress    int  `json:"total-progress" yaml:"total-progress"`
	DownloadProgress int  `json:"download-progress" yaml:"download-progress"`
	ValidateProgress int  `json:"validate-progress" yaml:"validate-progress"`
	UnpackProgress   int  `json:"unpack-progress" yaml:"unpack-progress"`
	IsComplete       bool `json:"is-complete" yaml:"is-complete"`
}

// PackageLoadingProgress summarises p, or returns nil when there is no
// progress data. A phase only reaches 100% once it is marked complete.
func PackageLoadingProgress(p *core.InstallProgress) *ProgressData {
	if p.IsEmpty() {
		return nil
	}

	complete := p.DownloadComplete && p.ValidationComplete && p.UnpackComplete

	if p.Size <= 0 {
		return unsizedProgress(p, complete)
	}

	downloaded := phaseAmount(p.Downloaded, p.Size, p.DownloadComplete)
	validated := phaseAmount(p.Validated, p.Size, p.ValidationComplete)
	unpacked := phaseAmount(p.Unpacked, p.Size, p.UnpackComplete)

	numerator := math.Floor(DownloadWeight*float64(downloaded) +
		ValidateWeight*float64(validated) +
		UnpackWeight*float64(unpacked))
	denominator := math.Floor(float64(p.Size) * (DownloadWeight + ValidateWeight + UnpackWeight))

	return &ProgressData{
		TotalProgress:    int(math.Floor(100 * numerator / denominator)),
		DownloadProgress: percent(downloaded, p.Size),
		ValidateProgress: percent(validated, p.Size),
		UnpackProgress:   percent(unpacked, p.Size),
		IsComplete:       complete,
	}
}

// unsizedProgress handles records whose total size is not known yet
func unsizedProgress(p *core.InstallProgress, complete bool) *ProgressData {
	done := func(ok bool) float64 {
		if ok {
			return 1
		}
		return 0
	}

	weighted := DownloadWeight*done(p.DownloadComplete) +
		ValidateWeight*done(p.ValidationComplete) +
		UnpackWeight*done(p.UnpackComplete)

	return &ProgressData{
		TotalProgress:    int(math.Floor(100 * weighted / (DownloadWeight + ValidateWeight + UnpackWeight))),
		DownloadProgress: int(100 * done(p.DownloadComplete)),
		ValidateProgress: int(100 * done(p.ValidationComplete)),
		UnpackProgress:   int(100 * done(p.UnpackComplete)),
		IsComplete:       complete,
	}
}

func phaseAmount(n, size int64, complete bool) int64 {
	if complete {
		return size
	}
	n = min(n, size) - 1
	if n < 0 {
		return 0
	}
	return n
}

func percent(n, size int64) int {
	return int(math.Floor(100 * float64(n) / float64(size)))
}
