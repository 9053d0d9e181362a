package workflow

import "tailorpos-backend/internal/domain"

// StageFor derives a garment's workflow stage from its active service lines.
// It never returns Done: that stage is reached only through the explicit
// pickup confirmation, which is conditioned on Ready For Pickup.
func StageFor(services []domain.ServiceLine) domain.GarmentStage {
	active, done := 0, 0
	for _, s := range services {
		if s.IsRemoved {
			continue
		}
		active++
		if s.IsDone {
			done++
		}
	}
	switch {
	case active == 0, done == 0:
		return domain.StageNew
	case done == active:
		return domain.StageReadyForPickup
	default:
		return domain.StageInProgress
	}
}

// ApplyOptimistically reports whether a predicted stage transition may be
// shown before server confirmation. Transitions among New, In Progress and
// Ready For Pickup always apply immediately; Done is entered and left only
// by the explicit pickup action, so a service edit must never flicker a
// picked-up garment back to an earlier stage.
func ApplyOptimistically(current, predicted domain.GarmentStage) bool {
	if current == domain.StageDone || predicted == domain.StageDone {
		return false
	}
	return true
}
