package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/rs/zerolog/log"
)

type startedAtKey struct{ name string }

func newNodeHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			if info == nil {
				return ctx
			}
			log.Debug().Str("component", string(info.Component)).Str("node", info.Name).Msg("node start")
			return context.WithValue(ctx, startedAtKey{info.Name}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			if info == nil {
				return ctx
			}
			evt := log.Debug().Str("component", string(info.Component)).Str("node", info.Name)
			if started, ok := ctx.Value(startedAtKey{info.Name}).(time.Time); ok {
				evt = evt.Dur("elapsed", time.Since(started))
			}
			evt.Msg("node end")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			name := ""
			if info != nil {
				name = info.Name
			}
			log.Warn().Err(err).Str("node", name).Msg("node error")
			return ctx
		}).
		Build()
}
