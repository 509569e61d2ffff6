package scheduler

import (
	"encoding/json"

	"headwear_backend/internal/email"

	"github.com/hibiken/asynq"
)

const TaskConversationTitleSummary = "conversation:title_summary"

const TaskQuotePDFRender = "quote:pdf_render"

const TaskEmailSend = "email:send"

type TitleSummaryPayload struct {
	ConversationID string `json:"conversationId"`
}

type QuotePDFPayload struct {
	QuoteOrderID string `json:"quoteOrderId"`
}

type EmailPayload struct {
	Message email.Message `json:"message"`
}

func NewTitleSummaryTask(payload TitleSummaryPayload) (*asynq.Task, error) {
	return newTask(TaskConversationTitleSummary, payload)
}

func NewQuotePDFTask(payload QuotePDFPayload) (*asynq.Task, error) {
	return newTask(TaskQuotePDFRender, payload)
}

func NewEmailTask(payload EmailPayload) (*asynq.Task, error) {
	return newTask(TaskEmailSend, payload)
}

func newTask(typename string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, data), nil
}

func parsePayload[T any](task *asynq.Task) (T, error) {
	var payload T
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
