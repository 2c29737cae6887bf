package orchestrators

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"outreach/internal/adapters/storage"
	"outreach/internal/application/fileext"
	"outreach/internal/domain/audit"
)

// mediaPathColumns registers every (table, column) holding media-root
// relative paths. The migration rewrites references in each of them.
var mediaPathColumns = []struct {
	Table  string
	Column string
}{
	{"student", "photo_path"},
	{"program", "banner_path"},
	{"media_file", "path"},
}

// PlannedRename is one file the migration would rename.
type PlannedRename struct {
	OldRel string // media-root relative, slash separated
	NewRel string
}

// ExtensionMigrationInput carries input for the migration run.
type ExtensionMigrationInput struct {
	MediaRoot string
	DryRun    bool
	Verbose   bool
}

// ExtensionMigrationDeps holds dependencies for the migration run.
type ExtensionMigrationDeps struct {
	DB         storage.SQLDB
	AuditStore RegisterAuditStore // optional
	Out        io.Writer          // CLI progress; defaults to io.Discard
	Now        func() time.Time   // optional: defaults to time.Now
}

// ExtensionMigrationResult summarizes a migration run.
type ExtensionMigrationResult struct {
	Planned    []PlannedRename
	Renamed    int
	Skipped    int
	RefUpdates int      // database rows rewritten
	RefErrors  []string // collected per-column update errors, non-fatal
}

// ExecuteExtensionMigration renames every media file whose extension
// contains an uppercase letter to its lowercased form and rewrites database
// references to the renamed files. Database updates run in one transaction;
// filesystem renames are NOT covered by it and are not reverted when a later
// step fails.
// PRE: MediaRoot exists, is a directory and is writable; no concurrent
// uploads are running
// POST: Dry-run leaves filesystem and database untouched; apply leaves no
// regular file with an uppercase extension except skipped collisions
func ExecuteExtensionMigration(ctx context.Context, input ExtensionMigrationInput, deps ExtensionMigrationDeps) (ExtensionMigrationResult, error) {
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	result := ExtensionMigrationResult{}

	slog.Info("fixext_started", "root", input.MediaRoot, "dry_run", input.DryRun)
	fmt.Fprintln(deps.Out, "Starting file extension migration to lowercase...")
	if input.DryRun {
		fmt.Fprintln(deps.Out, "(dry run, no files will be changed)")
	}

	if err := checkMediaRoot(input.MediaRoot); err != nil {
		return result, err
	}
	fmt.Fprintf(deps.Out, "Media root: %s\n", input.MediaRoot)

	planned, err := planRenames(input.MediaRoot)
	if err != nil {
		return result, fmt.Errorf("scan media root: %w", err)
	}
	result.Planned = planned

	if len(planned) == 0 {
		fmt.Fprintln(deps.Out, "No files with uppercase extensions found.")
		return result, nil
	}
	fmt.Fprintf(deps.Out, "Found %d files with uppercase extensions.\n", len(planned))

	if input.DryRun {
		for _, p := range planned {
			fmt.Fprintf(deps.Out, "  %s -> %s\n", p.OldRel, p.NewRel)
		}
		fmt.Fprintln(deps.Out, "Dry run completed. No files were renamed.")
		slog.Info("fixext_dry_run_complete", "planned", len(planned))
		return result, nil
	}

	tx, err := deps.DB.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	renamed := make([]PlannedRename, 0, len(planned))
	for _, p := range planned {
		outcome, err := renameOne(input.MediaRoot, p)
		if err != nil {
			fmt.Fprintf(deps.Out, "ERROR renaming %s: %v\n", p.OldRel, err)
			fmt.Fprintln(deps.Out, "Aborted. Database changes were rolled back; filesystem renames already performed were NOT reverted.")
			slog.Error("fixext_rename_failed", "path", p.OldRel, "error", err)
			return result, fmt.Errorf("rename %s: %w", p.OldRel, err)
		}
		switch outcome {
		case renameDone:
			renamed = append(renamed, p)
			result.Renamed++
			if input.Verbose {
				fmt.Fprintf(deps.Out, "  renamed: %s -> %s\n", p.OldRel, p.NewRel)
			}
			slog.Info("fixext_renamed", "old", p.OldRel, "new", p.NewRel)
		case renameSkippedCollision:
			result.Skipped++
			fmt.Fprintf(deps.Out, "  SKIPPED: target already exists: %s\n", p.NewRel)
			slog.Warn("fixext_target_exists", "old", p.OldRel, "new", p.NewRel)
		case renameSkippedMissing:
			result.Skipped++
			if input.Verbose {
				fmt.Fprintf(deps.Out, "  skipped (vanished): %s\n", p.OldRel)
			}
		}
	}

	if len(renamed) > 0 {
		fmt.Fprintf(deps.Out, "Updating database references for %d files...\n", len(renamed))
		updates, refErrs := updateReferences(ctx, tx, renamed, input.Verbose, deps.Out)
		result.RefUpdates = updates
		result.RefErrors = refErrs
	}

	if err := tx.Commit(); err != nil {
		fmt.Fprintln(deps.Out, "Aborted. Database changes were rolled back; filesystem renames already performed were NOT reverted.")
		return result, fmt.Errorf("commit reference updates: %w", err)
	}

	if len(result.RefErrors) > 0 {
		fmt.Fprintf(deps.Out, "Completed with %d error(s) during database updates.\n", len(result.RefErrors))
	}
	fmt.Fprintf(deps.Out, "Migrated %d files (%d skipped), updated %d database reference(s).\n", result.Renamed, result.Skipped, result.RefUpdates)
	slog.Info("fixext_complete", "renamed", result.Renamed, "skipped", result.Skipped, "ref_updates", result.RefUpdates, "ref_errors", len(result.RefErrors))

	if deps.AuditStore != nil {
		ev := audit.NewEvent("cli", "", audit.CategoryMedia, audit.ActionMigrate).
			WithDescription(fmt.Sprintf("extension migration: %d renamed, %d skipped, %d reference updates, %d reference errors",
				result.Renamed, result.Skipped, result.RefUpdates, len(result.RefErrors)))
		if err := deps.AuditStore.Save(ctx, ev); err != nil {
			slog.Error("audit_save_failed", "action", "extension_migration", "error", err)
		}
	}

	return result, nil
}

// checkMediaRoot verifies the root exists, is a directory, and is writable
// by creating and removing a probe file.
func checkMediaRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("media directory not found: %s", root)
	}
	if !info.IsDir() {
		return fmt.Errorf("media root is not a directory: %s", root)
	}
	probe := filepath.Join(root, ".fixext_probe")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("no write permission on media directory %s: %w", root, err)
	}
	f.Close()
	os.Remove(probe)
	return nil
}

// planRenames walks the media root and maps every regular file with an
// uppercase extension to its normalized path. WalkDir's lexical order makes
// the plan deterministic.
func planRenames(root string) ([]PlannedRename, error) {
	var planned []PlannedRename
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !fileext.NeedsNormalizing(rel) {
			return nil
		}
		planned = append(planned, PlannedRename{OldRel: rel, NewRel: fileext.Normalize(rel)})
		return nil
	})
	return planned, err
}

type renameOutcome int

const (
	renameDone renameOutcome = iota
	renameSkippedCollision
	renameSkippedMissing
)

// renameOne applies a single planned rename. When the target path resolves
// to the source file itself (case-insensitive filesystem), it renames
// through an intermediate name so the filesystem cannot treat the rename as
// a no-op. An existing distinct target is never overwritten.
func renameOne(root string, p PlannedRename) (renameOutcome, error) {
	oldAbs := filepath.Join(root, filepath.FromSlash(p.OldRel))
	newAbs := filepath.Join(root, filepath.FromSlash(p.NewRel))

	oldInfo, err := os.Lstat(oldAbs)
	if err != nil {
		// Vanished between walk and apply.
		return renameSkippedMissing, nil
	}

	if newInfo, err := os.Lstat(newAbs); err == nil {
		if !os.SameFile(oldInfo, newInfo) {
			return renameSkippedCollision, nil
		}
		// Same file under both spellings: case-insensitive filesystem.
		temp := oldAbs + ".temp_rename"
		if err := os.Rename(oldAbs, temp); err != nil {
			return 0, err
		}
		if err := os.Rename(temp, newAbs); err != nil {
			return 0, err
		}
		return renameDone, nil
	}

	if err := os.Rename(oldAbs, newAbs); err != nil {
		return 0, err
	}
	return renameDone, nil
}

// updateReferences rewrites renamed paths in every registered column.
// Errors are collected per column and reported by the caller, never fatal.
func updateReferences(ctx context.Context, tx *sql.Tx, renamed []PlannedRename, verbose bool, out io.Writer) (int, []string) {
	var updates int
	var errs []string
	for _, col := range mediaPathColumns {
		stmt := fmt.Sprintf("UPDATE %s SET %s = REPLACE(%s, ?, ?) WHERE %s LIKE '%%' || ? || '%%'",
			col.Table, col.Column, col.Column, col.Column)
		for _, p := range renamed {
			res, err := tx.ExecContext(ctx, stmt, p.OldRel, p.NewRel, p.OldRel)
			if err != nil {
				msg := fmt.Sprintf("update %s.%s for %s: %v", col.Table, col.Column, p.OldRel, err)
				errs = append(errs, msg)
				fmt.Fprintf(out, "  ERROR: %s\n", msg)
				slog.Error("fixext_reference_update_failed", "table", col.Table, "column", col.Column, "path", p.OldRel, "error", err)
				continue
			}
			n, _ := res.RowsAffected()
			if n > 0 {
				updates += int(n)
				if verbose {
					fmt.Fprintf(out, "  updated %d row(s) in %s.%s\n", n, col.Table, col.Column)
				}
			}
		}
	}
	return updates, errs
}
