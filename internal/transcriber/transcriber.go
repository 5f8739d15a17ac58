package transcriber

import (
	"context"
	"io"
)

type Input struct {
	Audio    io.Reader
	Language string
	Model    string
}

// Transcriber turns one finalized audio artifact into plain text. An empty
// transcript is the caller's problem to classify; implementations report
// only transport and upstream errors.
type Transcriber interface {
	Transcribe(ctx context.Context, input Input) (string, error)
}
