package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"moneytracker/internal/records"
)

// Client-side events the pages listen for.
const (
	eventFormReset      = "form:reset"
	eventSummaryRefresh = "summary:refresh"
	eventNotification   = "show-notification"
)

// NotificationType selects the styling of a toast.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// notification is the payload app.js expects on show-notification.
type notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

// HTMXResponseBuilder assembles a response together with the HX-Trigger
// events that tell the page which fragments to refresh.
type HTMXResponseBuilder struct {
	status   int
	headers  http.Header
	triggers map[string]any
	body     []byte
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:   http.StatusOK,
		headers:  make(http.Header),
		triggers: make(map[string]any),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers.Set(name, value)
	return b
}

// Trigger fires a client event; data is passed as the event detail.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	if data == nil {
		data = struct{}{}
	}
	b.triggers[name] = data
	return b
}

// TriggerEntryCreated fires income:created or expense:created.
func (b *HTMXResponseBuilder) TriggerEntryCreated(c records.Collection) *HTMXResponseBuilder {
	return b.Trigger(string(c)+":created", nil)
}

// TriggerEntryDeleted fires income:deleted or expense:deleted.
func (b *HTMXResponseBuilder) TriggerEntryDeleted(c records.Collection) *HTMXResponseBuilder {
	return b.Trigger(string(c)+":deleted", nil)
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(eventFormReset, nil)
}

// TriggerSummaryRefresh asks every totals panel on the page to reload.
func (b *HTMXResponseBuilder) TriggerSummaryRefresh() *HTMXResponseBuilder {
	return b.Trigger(eventSummaryRefresh, nil)
}

// TriggerNotification shows a toast for durationMs milliseconds. Only one
// toast is sent per response; a later call replaces an earlier one.
func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(eventNotification, notification{Type: kind, Message: message, Duration: durationMs})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// Redirect makes htmx navigate to url instead of swapping the response.
func (b *HTMXResponseBuilder) Redirect(url string) *HTMXResponseBuilder {
	return b.Header("HX-Redirect", url)
}

// HTML sets an HTML fragment as the body.
func (b *HTMXResponseBuilder) HTML(fragment string) *HTMXResponseBuilder {
	b.headers.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(fragment)
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}

	if len(b.triggers) > 0 {
		if events, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(events))
		}
	}

	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse renders message as an escaped inline alert.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		HTML(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError is used for input that failed validation.
func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// MethodNotAllowedError answers 405 with the Allow header set.
func MethodNotAllowedError(allowed string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowed)
}
