package ui

import (
	"fmt"
	"io"

	"github.com/quantmind-br/pkgstatus/internal/progress"
	"github.com/schollz/progressbar/v3"
)

// ProgressBar wraps progressbar/v3 with pkgstatus styling
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a percentage bar writing to w
func NewProgressBar(w io.Writer, description string) *ProgressBar {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &ProgressBar{bar: bar}
}

// Set sets the current progress to n percent
func (p *ProgressBar) Set(n int) error {
	return p.bar.Set(n)
}

// Finish completes the progress bar
func (p *ProgressBar) Finish() error {
	return p.bar.Finish()
}

// Describe changes the description of the progress bar
func (p *ProgressBar) Describe(description string) {
	p.bar.Describe(description)
}

// IsFinished returns true if the progress bar is finished
func (p *ProgressBar) IsFinished() bool {
	return p.bar.IsFinished()
}

// String returns the current rendering of the bar
func (p *ProgressBar) String() string {
	return p.bar.String()
}

// InstallProgressBar tracks the install progress of one package
type InstallProgressBar struct {
	bar  *ProgressBar
	name string
}

// NewInstallProgressBar creates a bar for package name writing to w
func NewInstallProgressBar(w io.Writer, name string) *InstallProgressBar {
	return &InstallProgressBar{
		bar:  NewProgressBar(w, name),
		name: name,
	}
}

// Update moves the bar to the total progress in data and describes the
// current phase. A nil data is ignored.
func (b *InstallProgressBar) Update(data *progress.ProgressData) error {
	if data == nil {
		return nil
	}

	b.bar.Describe(fmt.Sprintf("%s (%s)", b.name, Phase(data)))
	if data.IsComplete {
		if b.bar.IsFinished() {
			return nil
		}
		return b.bar.Finish()
	}
	return b.bar.Set(data.TotalProgress)
}

// Phase names the install phase data is in
func Phase(data *progress.ProgressData) string {
	switch {
	case data == nil:
		return "idle"
	case data.IsComplete:
		return "complete"
	case data.DownloadProgress < 100:
		return "downloading"
	case data.ValidateProgress < 100:
		return "validating"
	default:
		return "unpacking"
	}
}

// ProgressSummary renders data as a short text for table cells
func ProgressSummary(data *progress.ProgressData) string {
	if data == nil {
		return Muted.Sprint("-")
	}
	if data.IsComplete {
		return Success.Sprint("100%")
	}
	return fmt.Sprintf("%d%% %s", data.TotalProgress, Muted.Sprint(Phase(data)))
}
