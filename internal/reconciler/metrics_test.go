package reconciler

import (
	"testing"
)

func TestReconcilerMetrics_NewInstance(t *testing.T) {
	metrics := NewReconcilerMetrics()
	if metrics == nil {
		t.Fatal("expected non-nil metrics instance")
	}
	if metrics.kindMetrics == nil {
		t.Error("expected kindMetrics map to be initialized")
	}
}

func TestReconcilerMetrics_Observe(t *testing.T) {
	metrics := NewReconcilerMetrics()

	metrics.Observe(ChangeEvent{Kind: KindIssue, Operation: OperationCreate, Name: "RIG"})
	metrics.Observe(ChangeEvent{Kind: KindIssue, Operation: OperationUpdate, Name: "MDL"})
	metrics.Observe(ChangeEvent{Kind: KindEpic, Operation: OperationReuse, Name: "Character1"})
	metrics.Observe(ChangeEvent{Kind: KindLink, Operation: OperationSkip})

	summary := metrics.GetSummary()
	if summary.TotalCreated != 1 {
		t.Errorf("expected TotalCreated=1, got %d", summary.TotalCreated)
	}
	if summary.TotalUpdated != 1 {
		t.Errorf("expected TotalUpdated=1, got %d", summary.TotalUpdated)
	}

	issueMetrics, ok := metrics.GetKindMetrics(KindIssue)
	if !ok {
		t.Fatal("expected Issue metrics to exist")
	}
	if issueMetrics.Created != 1 || issueMetrics.Updated != 1 {
		t.Errorf("expected 1 created and 1 updated, got %+v", issueMetrics)
	}
	if issueMetrics.LastChangeAt.IsZero() {
		t.Error("expected LastChangeAt to be set")
	}

	epicMetrics, _ := metrics.GetKindMetrics(KindEpic)
	if epicMetrics.Reused != 1 {
		t.Errorf("expected Reused=1, got %d", epicMetrics.Reused)
	}

	if len(summary.PerKindMetrics) != 3 {
		t.Errorf("expected 3 kinds, got %d", len(summary.PerKindMetrics))
	}
	if summary.PerKindMetrics[0].Kind != KindEpic {
		t.Errorf("expected kinds sorted, got %s first", summary.PerKindMetrics[0].Kind)
	}
}

func TestReconcilerMetrics_RecordFailure(t *testing.T) {
	metrics := NewReconcilerMetrics()

	metrics.RecordFailure(KindTask, "Rigging", "folder not writable")

	summary := metrics.GetSummary()
	if summary.TotalFailures != 1 {
		t.Errorf("expected TotalFailures=1, got %d", summary.TotalFailures)
	}
	taskMetrics, ok := metrics.GetKindMetrics(KindTask)
	if !ok {
		t.Fatal("expected Task metrics to exist")
	}
	if taskMetrics.LastFailureAt.IsZero() {
		t.Error("expected LastFailureAt to be set")
	}
}

func TestReconcilerMetrics_RunFailureRate(t *testing.T) {
	metrics := NewReconcilerMetrics()

	if rate := metrics.GetSummary().RunFailureRate; rate != 0 {
		t.Errorf("expected RunFailureRate=0 with no runs, got %f", rate)
	}

	metrics.RecordRun(false)
	metrics.RecordRun(true)

	summary := metrics.GetSummary()
	if summary.TotalRuns != 2 || summary.TotalRunFailures != 1 {
		t.Errorf("unexpected run totals: %+v", summary)
	}
	if summary.RunFailureRate != 0.5 {
		t.Errorf("expected RunFailureRate=0.5, got %f", summary.RunFailureRate)
	}
}

func TestReconcilerMetrics_GetKindMetrics_NotFound(t *testing.T) {
	metrics := NewReconcilerMetrics()

	if _, ok := metrics.GetKindMetrics(KindLink); ok {
		t.Error("expected Link metrics to not exist")
	}
}

func TestGetReconcilerMetrics_Singleton(t *testing.T) {
	ResetReconcilerMetrics()

	metrics1 := GetReconcilerMetrics()
	metrics2 := GetReconcilerMetrics()
	if metrics1 != metrics2 {
		t.Error("expected the same instance")
	}

	ResetReconcilerMetrics()
	if GetReconcilerMetrics() == metrics1 {
		t.Error("expected a new instance after reset")
	}
}
