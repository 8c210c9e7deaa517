package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/haatos/shipci/internal"
)

type RunSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewRunSQLiteStore(rdb, rwdb *sql.DB) *RunSQLiteStore {
	return &RunSQLiteStore{rdb, rwdb}
}

func (store *RunSQLiteStore) CreateRun(
	ctx context.Context,
	branch, commitHash, commitMessage string,
	skipCI bool,
) (*Run, error) {
	r := &Run{
		Branch:        branch,
		CommitHash:    commitHash,
		CommitMessage: commitMessage,
		SkipCI:        skipCI,
		Status:        StatusQueued,
	}
	query := `insert into runs (
		branch,
		commit_hash,
		commit_message,
		skip_ci,
		status
	)
	values ($1, $2, $3, $4, $5)
	returning run_id, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, r, query,
		r.Branch, r.CommitHash, r.CommitMessage, r.SkipCI, r.Status,
	); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) ReadRunByID(ctx context.Context, id int64) (*Run, error) {
	r := &Run{RunID: id}
	query := "select * from runs where run_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, r, query, r.RunID); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) UpdateRunStartedOn(
	ctx context.Context,
	id int64,
	status RunStatus,
	startedOn *time.Time,
) error {
	query := `update runs
	set status = $1,
		started_on = $2
	where run_id = $3`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		startedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

func (store *RunSQLiteStore) UpdateRunEndedOn(
	ctx context.Context,
	id int64,
	r *Run,
) error {
	query := `update runs
	set status = $1,
		old_version = $2,
		new_version = $3,
		image_tag = $4,
		cause = $5,
		ended_on = $6
	where run_id = $7`
	var endedOn any
	if r.EndedOn != nil {
		endedOn = r.EndedOn.Format(internal.DBTimestampLayout)
	}
	_, err := store.rwdb.ExecContext(
		ctx, query,
		r.Status,
		r.OldVersion,
		r.NewVersion,
		r.ImageTag,
		r.Cause,
		endedOn,
		id,
	)
	return err
}

func (store *RunSQLiteStore) ListRunsPaginated(
	ctx context.Context,
	limit, offset int64,
) ([]Run, error) {
	runs := []Run{}
	query := `select * from runs
	order by run_id desc
	limit $1 offset $2`
	if err := sqlscan.Select(ctx, store.rdb, &runs, query, limit, offset); err != nil {
		return nil, err
	}
	return runs, nil
}

func (store *RunSQLiteStore) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	query := "select count(*) from runs"
	if err := store.rdb.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (store *RunSQLiteStore) DeleteRunsBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	query := "delete from runs where created_on < $1"
	res, err := store.rwdb.ExecContext(
		ctx, query,
		cutoff.Format(internal.DBTimestampLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
