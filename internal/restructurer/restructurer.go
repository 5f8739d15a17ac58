package restructurer

import (
	"context"

	"github.com/foxseedlab/koenote/internal/repository"
)

type Input struct {
	Transcript string
	Language   string
	Style      repository.OrganizationStyle
}

type Result struct {
	Title string
	Note  string
}

// Restructurer turns a raw transcript into a titled, cleaned-up note body.
// Failures here are always recoverable for the caller: the pipeline falls
// back to the verbatim transcript, so implementations just report what went
// wrong.
type Restructurer interface {
	Restructure(ctx context.Context, input Input) (*Result, error)
}
