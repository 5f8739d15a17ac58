package note

import (
	"github.com/foxseedlab/koenote/internal/artifact"
	"github.com/foxseedlab/koenote/internal/config"
	"github.com/foxseedlab/koenote/internal/repository"
	"github.com/foxseedlab/koenote/internal/restructurer"
	"github.com/foxseedlab/koenote/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		store := do.MustInvoke[artifact.Store](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		llm := do.MustInvoke[restructurer.Restructurer](i)
		return NewService(repo, store, stt, llm, cfg.DefaultLanguage), nil
	})
}
