package main

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/codemastery/internal/catalog"
	"github.com/felixgeelhaar/codemastery/internal/repository"
)

// cmdSeed imports a YAML catalog in one transaction
func cmdSeed(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: codemastery seed <file.yaml>")
	}

	seed, err := catalog.LoadSeedFile(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, _, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := catalog.NewService(repository.NewSQLUnitOfWork(db))
	res, err := svc.Import(ctx, seed)
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}

	fmt.Printf("Seeded %s: %d created, %d updated\n", args[0], res.Created, res.Updated)
	return nil
}
