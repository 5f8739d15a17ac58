package api

import (
	"github.com/foxseedlab/koenote/internal/account"
	"github.com/foxseedlab/koenote/internal/artifact"
	"github.com/foxseedlab/koenote/internal/capture"
	"github.com/foxseedlab/koenote/internal/note"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Handler, error) {
		notes := do.MustInvoke[*note.Service](i)
		accounts := do.MustInvoke[*account.Service](i)
		captures := do.MustInvoke[*capture.Manager](i)
		store := do.MustInvoke[artifact.Store](i)
		return NewHandler(notes, accounts, captures, store), nil
	})
}
