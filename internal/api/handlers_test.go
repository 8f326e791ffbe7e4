package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubRunHandler struct{}

func (stubRunHandler) Run(ctx context.Context, req RunRequest) (*RunReport, error) {
	return &RunReport{TemplateName: req.TemplateName}, nil
}
func (stubRunHandler) Validate(ctx context.Context, req RunRequest) error { return nil }
func (stubRunHandler) ListTemplates() ([]string, error)                   { return []string{"Tier_1_Outfit"}, nil }

type stubJournalHandler struct{}

func (stubJournalHandler) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	return []RunRecord{{RunID: "r1"}}, nil
}

func TestRegisterRunHandler(t *testing.T) {
	t.Cleanup(func() { RegisterRunHandler(nil) })

	RegisterRunHandler(nil)
	assert.Nil(t, GetRunHandler())

	RegisterRunHandler(stubRunHandler{})
	h := GetRunHandler()
	if assert.NotNil(t, h) {
		report, err := h.Run(context.Background(), RunRequest{TemplateName: "Tier_1_Outfit"})
		assert.NoError(t, err)
		assert.Equal(t, "Tier_1_Outfit", report.TemplateName)
	}
}

func TestRegisterJournalHandler(t *testing.T) {
	t.Cleanup(func() { RegisterJournalHandler(nil) })

	RegisterJournalHandler(stubJournalHandler{})
	runs, err := GetJournalHandler().ListRuns(context.Background(), 10)
	assert.NoError(t, err)
	assert.Len(t, runs, 1)
}
