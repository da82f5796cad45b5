package pipeline

import "github.com/aquaforge/netbuilder/internal/domain"

// Stage names one step of the build pipeline. The names are part of the
// progress protocol consumed by callers and must stay stable.
type Stage string

const (
	StageReadingConfig        Stage = "reading config"
	StageValidating           Stage = "validating"
	StageConvertingGeometry   Stage = "converting multi-part geometry"
	StageSimplifyingCrossings Stage = "simplifying crossings"
	StageBuildingGraph        Stage = "building graph"
	StageConnectivity         Stage = "calculating connectivity"
	StageElevations           Stage = "assigning elevations"
	StageGenerating           Stage = "generating the document"
	StageFinished             Stage = "finished"
)

// Stages returns every stage in execution order.
func Stages() []Stage {
	return []Stage{
		StageReadingConfig,
		StageValidating,
		StageConvertingGeometry,
		StageSimplifyingCrossings,
		StageBuildingGraph,
		StageConnectivity,
		StageElevations,
		StageGenerating,
		StageFinished,
	}
}

// Event is one message of the progress protocol: a sequence of progress
// events in stage order, terminated by exactly one complete or error event.
type Event struct {
	Type     string           `json:"type"` // progress | complete | error
	Task     Stage            `json:"task,omitempty"`
	INPFile  string           `json:"inpFile,omitempty"`
	Warnings []domain.Warning `json:"warnings,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// EventFunc receives every event a build emits, in order. It is called from
// the build goroutine; implementations adapt it to whatever notification
// channel the host has.
type EventFunc func(Event)

func progressEvent(s Stage) Event {
	return Event{Type: "progress", Task: s}
}

func completeEvent(res domain.BuildResult) Event {
	return Event{Type: "complete", INPFile: res.INPFile, Warnings: res.Warnings}
}

func errorEvent(err error) Event {
	return Event{Type: "error", Message: err.Error()}
}
