package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadFollowupEmail = "leads.followup.email"

type LeadFollowupEmailPayload struct {
	SessionID string `json:"sessionId"`
}

func NewLeadFollowupEmailTask(payload LeadFollowupEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadFollowupEmail, data), nil
}

func ParseLeadFollowupEmailPayload(task *asynq.Task) (LeadFollowupEmailPayload, error) {
	var payload LeadFollowupEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadFollowupEmailPayload{}, err
	}
	return payload, nil
}
