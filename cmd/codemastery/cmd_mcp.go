package main

import (
	"github.com/felixgeelhaar/codemastery/internal/api"
	"github.com/felixgeelhaar/codemastery/internal/catalog"
	"github.com/felixgeelhaar/codemastery/internal/grading"
	mcpserver "github.com/felixgeelhaar/codemastery/internal/mcp"
	"github.com/felixgeelhaar/codemastery/internal/progress"
	"github.com/felixgeelhaar/codemastery/internal/repository"
)

// cmdMCP starts the MCP server on stdio
func cmdMCP() error {
	ctx, cancel := signalContext()
	defer cancel()

	db, _, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	uow := repository.NewSQLUnitOfWork(db)
	mcpSrv := mcpserver.NewServer(mcpserver.Config{
		Version:  api.Version,
		Catalog:  catalog.NewService(uow),
		Grading:  grading.NewService(uow),
		Progress: progress.NewService(uow),
	})

	return mcpSrv.ServeStdio(ctx)
}
