package migration

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// Legacy version marker conventions. Stores written before snapshots carried
// an application model version recorded it in instances of an entity whose
// name contains LegacyMarker, under the LegacyVersionField attribute.
const (
	LegacyMarker       = "versionpo"
	LegacyVersionField = "version"
)

// Detector recovers the effective version of a snapshot that carries no
// explicit version. It must not modify the snapshot.
type Detector func(snap *types.Snapshot) (int64, error)

// MarkerDetector returns a detector that scans every entity whose name
// contains marker, compared case-insensitively, and returns the highest
// integer found under field across all of their instances. Values that are
// missing or not integers are skipped. It returns zero when no marker
// entity or no valid value exists.
func MarkerDetector(marker, field string) Detector {
	return func(snap *types.Snapshot) (int64, error) {
		fold := cases.Fold()
		want := fold.String(marker)
		var version int64
		for _, e := range snap.Entities {
			if !strings.Contains(fold.String(e.Name), want) {
				continue
			}
			for _, inst := range e.Instances {
				v, ok := inst.Get(field)
				if !ok {
					continue
				}
				n, ok := v.Int()
				if !ok {
					continue
				}
				if n > version {
					version = n
				}
			}
		}
		return version, nil
	}
}

// LegacyDetector returns the MarkerDetector for the legacy version marker
// entity.
func LegacyDetector() Detector {
	return MarkerDetector(LegacyMarker, LegacyVersionField)
}

// FixedDetector returns a detector that always reports version.
func FixedDetector(version int64) Detector {
	return func(*types.Snapshot) (int64, error) {
		return version, nil
	}
}
