package ingest

import (
	"encoding/json"
	"math"

	"github.com/lox/cptinterp/internal/models"
)

const (
	FlagDepthNegative      = "depth_negative"
	FlagDepthNotIncreasing = "depth_not_increasing"
	FlagQCNegative         = "qc_negative"
	FlagQCUnlikely         = "qc_unlikely"
	FlagFSNegative         = "fs_negative"
	FlagU2Unlikely         = "u2_unlikely"
	FlagQCMissing          = "qc_missing"
	FlagFSMissing          = "fs_missing"
)

// Plausibility limits for field soundings.
const (
	maxQC    = 150.0  // MPa
	maxAbsU2 = 5000.0 // kPa
)

// ValidateReading flags implausible values. prev is the preceding reading of
// the same probe, or nil. Flags are informational and never drop a reading.
func ValidateReading(r, prev *models.RawReading) []string {
	var flags []string

	if r.Depth < 0 {
		flags = append(flags, FlagDepthNegative)
	}
	if prev != nil && r.Depth <= prev.Depth {
		flags = append(flags, FlagDepthNotIncreasing)
	}

	if !r.QC.Valid {
		flags = append(flags, FlagQCMissing)
	} else if r.QC.Float64 < 0 {
		flags = append(flags, FlagQCNegative)
	} else if r.QC.Float64 > maxQC {
		flags = append(flags, FlagQCUnlikely)
	}

	if !r.FS.Valid {
		flags = append(flags, FlagFSMissing)
	} else if r.FS.Float64 < 0 {
		flags = append(flags, FlagFSNegative)
	}

	if r.U2.Valid && math.Abs(r.U2.Float64) > maxAbsU2 {
		flags = append(flags, FlagU2Unlikely)
	}

	return flags
}

// ValidateSeries flags every reading of a probe and returns only the
// readings that raised at least one flag.
func ValidateSeries(s Series) []models.ReadingFlag {
	var out []models.ReadingFlag
	for i := range s.Readings {
		var prev *models.RawReading
		if i > 0 {
			prev = &s.Readings[i-1]
		}
		if flags := ValidateReading(&s.Readings[i], prev); len(flags) > 0 {
			out = append(out, models.ReadingFlag{PointID: s.PointID, Depth: s.Readings[i].Depth, Flags: flags})
		}
	}
	return out
}

func QualityFlagsToJSON(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	b, _ := json.Marshal(flags)
	return string(b)
}
