// Package advice asks a language model how to recycle a classified waste type.
package advice

import (
	"context"
	"fmt"
	"strings"
)

// Advisor returns recycling advice for a waste label.
type Advisor interface {
	Advice(ctx context.Context, label string) (string, error)
}

const SystemMessage = "Kamu adalah asisten ramah yang menjawab dalam bahasa Indonesia dengan gaya santai."

// BuildPrompt embeds label in the recycling question.
func BuildPrompt(label string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Jenis sampah: %s\n", label)
	b.WriteString("Tolong bantu saya:\n")
	b.WriteString("1. Jelaskan cara mendaur ulang sampah ini.\n")
	b.WriteString("2. Berikan 3 ide kerajinan tangan dari sampah ini.\n")
	b.WriteString("Jawab dalam Bahasa Indonesia yang santai dan mudah dipahami.\n")
	return b.String()
}

// UpstreamError is any failure talking to the advice provider.
// StatusCode and Body are set when the provider answered.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s advice %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s advice: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
