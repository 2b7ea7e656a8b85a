package scheduler

import (
	"testing"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWorkflow() domain.WorkflowDefinition {
	return domain.WorkflowDefinition{
		ID: "nightly",
		Nodes: []domain.Node{
			{ID: "T", Type: domain.NodeType_Template, Data: map[string]any{"template": "ping"}},
		},
	}
}

func TestScheduler_Add(t *testing.T) {
	tests := []struct {
		name     string
		schedule ScheduledWorkflow
		wantErr  string
	}{
		{
			name:     "valid",
			schedule: ScheduledWorkflow{Name: "nightly", Spec: "0 2 * * *", Workflow: validWorkflow()},
		},
		{
			name:     "invalid cron spec",
			schedule: ScheduledWorkflow{Name: "broken", Spec: "not a spec", Workflow: validWorkflow()},
			wantErr:  "invalid cron spec",
		},
		{
			name: "invalid workflow",
			schedule: ScheduledWorkflow{
				Name: "dangling",
				Spec: "0 2 * * *",
				Workflow: domain.WorkflowDefinition{
					ID:    "dangling",
					Nodes: []domain.Node{{ID: "A", Type: domain.NodeType_Template, Data: map[string]any{"template": "x"}}},
					Edges: []domain.Edge{{ID: "e1", Source: "A", Target: "missing"}},
				},
			},
			wantErr: "invalid workflow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(nil)

			err := s.Add(tt.schedule)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}
}
