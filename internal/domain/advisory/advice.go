package advisory

import (
	"fmt"
	"strings"
)

// Stage is the farm activity the advice is for.
type Stage string

const (
	StageSowing     Stage = "sow"
	StageSpraying   Stage = "spray"
	StageDisease    Stage = "disease"
	StageIrrigation Stage = "irrig"
	StageGeneral    Stage = "general"
)

// ParseStage maps s to a Stage; anything unrecognized is StageGeneral.
func ParseStage(s string) Stage {
	switch st := Stage(strings.ToLower(strings.TrimSpace(s))); st {
	case StageSowing, StageSpraying, StageDisease, StageIrrigation:
		return st
	default:
		return StageGeneral
	}
}

// Level grades a piece of advice.
type Level string

const (
	LevelNone    Level = ""
	LevelSafe    Level = "safe"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Advice is a single advisory banner. LevelNone means nothing to show.
type Advice struct {
	Stage   Stage
	Level   Level
	Message string
}

// Advise evaluates today's weather for stage.
func Advise(stage Stage, today Day) Advice {
	a := Advice{Stage: stage}
	switch stage {
	case StageSpraying:
		if !today.SpraySafe() {
			a.Level = LevelDanger
			a.Message = fmt.Sprintf("Warning: High winds (%d km/h) or rain detected. Spraying is NOT recommended today.", today.WindSpeed)
		} else {
			a.Level = LevelSafe
			a.Message = fmt.Sprintf("Weather conditions (Wind: %d km/h) are favorable for spraying.", today.WindSpeed)
		}
	case StageSowing:
		switch {
		case today.RainChance > 60:
			a.Level = LevelWarning
			a.Message = fmt.Sprintf("Heavy rain forecast (%d%%). Delay sowing to avoid seed wash-off.", today.RainChance)
		case today.RainChance < 20:
			a.Level = LevelWarning
			a.Message = "Low rain chance. Ensure sufficient soil moisture before sowing."
		default:
			a.Level = LevelSafe
			a.Message = "Good conditions for sowing."
		}
	case StageDisease:
		if today.Humidity > 80 {
			a.Level = LevelDanger
			a.Message = fmt.Sprintf("High humidity (%d%%) significantly increases fungal disease risk. Monitor crop closely.", today.Humidity)
		} else {
			a.Level = LevelSafe
			a.Message = "Moderate humidity. Lower risk of fungal spread today."
		}
	case StageIrrigation:
		if today.RainChance > 50 {
			a.Level = LevelSafe
			a.Message = "Rain predicted today. You may skip irrigation to save water."
		}
	default:
		if today.RainChance > 70 {
			a.Level = LevelWarning
			a.Message = "Heavy rain alert today. Plan farm activities accordingly."
		}
	}
	return a
}
