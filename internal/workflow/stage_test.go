package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tailorpos-backend/internal/domain"
)

func svc(done, removed bool) domain.ServiceLine {
	return domain.ServiceLine{Quantity: 1, UnitPriceCents: 1000, IsDone: done, IsRemoved: removed}
}

func TestStageFor_NoServices(t *testing.T) {
	assert.Equal(t, domain.StageNew, StageFor(nil))
	assert.Equal(t, domain.StageNew, StageFor([]domain.ServiceLine{}))
}

func TestStageFor_NoneDone(t *testing.T) {
	services := []domain.ServiceLine{svc(false, false), svc(false, false)}
	assert.Equal(t, domain.StageNew, StageFor(services))
}

func TestStageFor_SomeDone(t *testing.T) {
	services := []domain.ServiceLine{svc(true, false), svc(false, false), svc(false, false)}
	assert.Equal(t, domain.StageInProgress, StageFor(services))
}

func TestStageFor_AllDone(t *testing.T) {
	services := []domain.ServiceLine{svc(true, false), svc(true, false)}
	assert.Equal(t, domain.StageReadyForPickup, StageFor(services))
}

func TestStageFor_RemovedServicesIgnored(t *testing.T) {
	// 3 services, 1 removed; both remaining ones done.
	services := []domain.ServiceLine{svc(true, false), svc(true, false), svc(false, true)}
	assert.Equal(t, domain.StageReadyForPickup, StageFor(services))

	// Only removed services left: back to New.
	services = []domain.ServiceLine{svc(true, true), svc(false, true)}
	assert.Equal(t, domain.StageNew, StageFor(services))
}

func TestStageFor_AddThenRemoveRestoresStage(t *testing.T) {
	// Adding then immediately soft-deleting a line restores the prior stage.
	services := []domain.ServiceLine{svc(true, false), svc(true, false)}
	before := StageFor(services)

	extra := append(append([]domain.ServiceLine{}, services...), svc(false, false))
	assert.Equal(t, domain.StageInProgress, StageFor(extra))

	extra[2].IsRemoved = true
	assert.Equal(t, before, StageFor(extra))
}

func TestApplyOptimistically(t *testing.T) {
	stages := []domain.GarmentStage{domain.StageNew, domain.StageInProgress, domain.StageReadyForPickup}
	for _, from := range stages {
		for _, to := range stages {
			assert.True(t, ApplyOptimistically(from, to), "%s -> %s", from, to)
		}
	}
	for _, s := range stages {
		assert.False(t, ApplyOptimistically(domain.StageDone, s))
		assert.False(t, ApplyOptimistically(s, domain.StageDone))
	}
}
