package status

// StatusRendering describes how a status is shown: its label, a named
// color and whether an activity indicator follows the label.
type StatusRendering struct {
	Display  string `json:"display"`
	Color    string `json:"color"`
	ShowDots bool   `json:"show-dots,omitempty"`
}

// Named colors understood by the ui package
const (
	ColorPrimary   = "primary"
	ColorSuccess   = "success"
	ColorWarning   = "warning"
	ColorDanger    = "danger"
	ColorDarkShade = "dark-shade"
)

// UnknownRendering is returned for primary statuses missing from the table
var UnknownRendering = StatusRendering{Display: "Unknown", Color: ColorDarkShade}

var primaryRenderings = map[PrimaryStatus]StatusRendering{
	PrimaryInstalling:  {Display: "Installing", Color: ColorPrimary, ShowDots: true},
	PrimaryUpdating:    {Display: "Updating", Color: ColorPrimary, ShowDots: true},
	PrimaryRemoving:    {Display: "Removing", Color: ColorDanger, ShowDots: true},
	PrimaryRestoring:   {Display: "Restoring", Color: ColorPrimary, ShowDots: true},
	PrimaryStarting:    {Display: "Starting", Color: ColorPrimary, ShowDots: true},
	PrimaryRunning:     {Display: "Running", Color: ColorSuccess},
	PrimaryStopping:    {Display: "Stopping", Color: ColorDarkShade, ShowDots: true},
	PrimaryStopped:     {Display: "Stopped", Color: ColorDarkShade},
	PrimaryBackingUp:   {Display: "Backing Up", Color: ColorPrimary, ShowDots: true},
	PrimaryNeedsConfig: {Display: "Needs Config", Color: ColorWarning},
}

var healthRenderings = map[HealthStatus]StatusRendering{
	HealthFailure:  {Display: "Failure", Color: ColorDanger},
	HealthWaiting:  {Display: "Waiting", Color: ColorWarning},
	HealthStarting: {Display: "Starting", Color: ColorPrimary, ShowDots: true},
	HealthLoading:  {Display: "Loading", Color: ColorPrimary, ShowDots: true},
	HealthHealthy:  {Display: "Healthy", Color: ColorSuccess},
}

var dependencyRenderings = map[DependencyStatus]StatusRendering{
	DependencyWarning:   {Display: "Issue", Color: ColorWarning},
	DependencySatisfied: {Display: "Satisfied", Color: ColorSuccess},
}

// LookupPrimaryRendering returns the rendering for p and whether p is mapped
func LookupPrimaryRendering(p PrimaryStatus) (StatusRendering, bool) {
	r, ok := primaryRenderings[p]
	return r, ok
}

// PrimaryRendering returns the rendering for p, or UnknownRendering when p
// is not mapped.
func PrimaryRendering(p PrimaryStatus) StatusRendering {
	if r, ok := primaryRenderings[p]; ok {
		return r
	}
	return UnknownRendering
}

// HealthRendering returns the rendering for h. HealthNone is not rendered.
func HealthRendering(h HealthStatus) (StatusRendering, bool) {
	r, ok := healthRenderings[h]
	return r, ok
}

// DependencyRendering returns the rendering for d. DependencyNone is not rendered.
func DependencyRendering(d DependencyStatus) (StatusRendering, bool) {
	r, ok := dependencyRenderings[d]
	return r, ok
}

// PrimaryStatuses returns every mapped primary status in display order
func PrimaryStatuses() []PrimaryStatus {
	return []PrimaryStatus{
		PrimaryInstalling, PrimaryUpdating, PrimaryRemoving, PrimaryRestoring,
		PrimaryStarting, PrimaryRunning, PrimaryStopping, PrimaryStopped,
		PrimaryBackingUp, PrimaryNeedsConfig,
	}
}
