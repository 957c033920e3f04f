package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/codemastery/internal/progress"
	"github.com/felixgeelhaar/codemastery/internal/repository"
)

// cmdSummary prints a user's completion summary
func cmdSummary(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: codemastery summary <user_id>")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("user_id must be an integer, got %q", args[0])
	}

	ctx := context.Background()
	db, _, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := progress.NewService(repository.NewSQLUnitOfWork(db))
	summary, err := svc.UserSummary(ctx, userID)
	if err != nil {
		return err
	}

	fmt.Printf("%s (user %d)\n", summary.UserName, summary.UserID)
	fmt.Printf("  Modules:    %d completed, %d incomplete, %d total\n", summary.Completed, summary.Incomplete, summary.Total)
	fmt.Printf("  Completion: %s %.2f%%\n", renderProgressBar(summary.Percentage/100, 20), summary.Percentage)
	return nil
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
