// Command line interface entry point for HexaTopo.
package main

import (
	"context"

	"github.com/turtacn/HexaTopo/internal/application/query"
	"github.com/turtacn/HexaTopo/internal/bootstrap"
	"github.com/turtacn/HexaTopo/internal/config"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/HexaTopo/internal/interfaces/cli"
)

func main() {
	cli.Execute(newService)
}

// newService is the production service factory: it wires the full
// application stack and tears it back down when the command finishes.
func newService(ctx context.Context, cfg *config.Config, log logging.Logger) (query.Service, func(), error) {
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return app.Service, app.Close, nil
}
