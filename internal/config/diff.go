package config

import "reflect"

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// ScoringChanged is set when any scoring knob changed. Scoring is
	// applied without a restart.
	ScoringChanged bool

	// RestartRequired lists changed sections that only take effect after a
	// restart, e.g. "asr" or "server.listen_addr".
	RestartRequired []string
}

// Diff compares old and new configs.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	d.ScoringChanged = !scoringEqual(old.Scoring, new.Scoring)

	oldSrv, newSrv := old.Server, new.Server
	oldSrv.LogLevel, newSrv.LogLevel = "", ""
	if !reflect.DeepEqual(oldSrv, newSrv) {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	if !reflect.DeepEqual(old.ASR, new.ASR) {
		d.RestartRequired = append(d.RestartRequired, "asr")
	}
	if old.Telemetry != new.Telemetry {
		d.RestartRequired = append(d.RestartRequired, "telemetry")
	}
	return d
}

func scoringEqual(a, b ScoringConfig) bool {
	return floatPtrEqual(a.SimilarityThreshold, b.SimilarityThreshold) &&
		floatPtrEqual(a.AccuracyWeight, b.AccuracyWeight) &&
		floatPtrEqual(a.FluencyWeight, b.FluencyWeight) &&
		a.Similarity == b.Similarity
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
