package models

// Flash severities.
const (
	FlashInfo    = "info"
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Severity string
	Text     string
}

func Info(text string) Flash    { return Flash{Severity: FlashInfo, Text: text} }
func Success(text string) Flash { return Flash{Severity: FlashSuccess, Text: text} }
func Error(text string) Flash   { return Flash{Severity: FlashError, Text: text} }
