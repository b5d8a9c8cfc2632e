package build

import (
	"context"
	"fmt"

	"radar/internal/staging"
	dErrors "radar/pkg/domain-errors"
	"radar/pkg/platform/sentinel"
)

// CheckCompleteness fails when a required table is missing or empty and
// lists the optional tables that were not staged. It never touches the
// artifact.
func CheckCompleteness(inv staging.Inventory) (missingOptional []staging.Table, err error) {
	for _, table := range staging.RequiredTables {
		n, ok := inv[table]
		if !ok {
			return nil, dErrors.Wrap(fmt.Errorf("%w: %s", sentinel.ErrMissingTable, table),
				dErrors.CodeIncomplete, "required source "+string(table)+" was not staged")
		}
		if n == 0 {
			return nil, dErrors.Wrap(fmt.Errorf("%w: %s", sentinel.ErrEmptyTable, table),
				dErrors.CodeIncomplete, "required source "+string(table)+" is empty")
		}
	}
	for _, table := range staging.OptionalTables {
		if _, ok := inv[table]; !ok {
			missingOptional = append(missingOptional, table)
		}
	}
	return missingOptional, nil
}

// Gate reads the source inventory and applies CheckCompleteness, warning
// about absent optional tables.
func (b *Builder) Gate(ctx context.Context, src staging.Source) error {
	inv, err := src.Inventory(ctx)
	if err != nil {
		return fmt.Errorf("read staging inventory: %w", err)
	}
	missing, err := CheckCompleteness(inv)
	if err != nil {
		b.metrics.ObserveBuild("incomplete", 0)
		b.logger.ErrorContext(ctx, "staging incomplete, build not started", "error", err)
		return err
	}
	for _, table := range missing {
		b.logger.WarnContext(ctx, "optional source not staged, dependent indicator skipped", "table", string(table))
	}
	return nil
}
