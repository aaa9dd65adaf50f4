package store

// SQL query constants organized by entity.
// All SQL lives here; PostgresStore methods reference these constants.

// Wait history queries.
const (
	queryInsertWait = `
		INSERT INTO wait_history (
			kind, source, namespace, group_name, rule_name,
			outcome, reason, ticks, elapsed_ms, started_at, finished_at
		) VALUES (
			@kind, @source, @namespace, @group_name, @rule_name,
			@outcome, @reason, @ticks, @elapsed_ms, @started_at, @finished_at
		)
		RETURNING id`

	queryGetWait = baseWaitsSelect + `
		WHERE id = $1`
)

// Audit run queries.
const (
	queryInsertAuditRun = `
		INSERT INTO audit_runs (started_at, status)
		VALUES (now(), 'running')
		RETURNING id`

	queryCompleteAuditRun = `
		UPDATE audit_runs SET
			completed_at = now(),
			status = $2,
			error_text = $3,
			groups_checked = $4,
			groups_drifted = $5
		WHERE id = $1`

	queryListAuditRuns = `
		SELECT id, started_at, completed_at, status, error_text, groups_checked, groups_drifted
		FROM audit_runs
		ORDER BY started_at DESC
		LIMIT $1`

	queryMarkStaleAuditRunsCrashed = `
		UPDATE audit_runs SET
			status = 'crashed',
			completed_at = now(),
			error_text = 'process exited before the run completed'
		WHERE status = 'running' AND started_at < $1`

	queryDeleteOldAuditRuns = `
		DELETE FROM audit_runs WHERE started_at < now() - INTERVAL '30 days'`
)

// Scheduler lock queries.
const (
	queryAcquireSchedulerLock = `
		INSERT INTO scheduler_locks (job_name, holder, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_name) DO UPDATE SET
			holder = EXCLUDED.holder,
			expires_at = EXCLUDED.expires_at
		WHERE scheduler_locks.expires_at < now() OR scheduler_locks.holder = EXCLUDED.holder
		RETURNING job_name`

	queryReleaseSchedulerLock = `
		DELETE FROM scheduler_locks WHERE job_name = $1 AND holder = $2`
)
