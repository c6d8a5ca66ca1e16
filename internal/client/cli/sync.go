package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/client/services"
)

func pendingSummary(st services.SyncStatus) string {
	s := fmt.Sprintf("%d pending", st.Pending)
	if st.Quarantined > 0 {
		s += fmt.Sprintf(", %d need attention", st.Quarantined)
	}
	return s
}

// Status prints connectivity, queue counts and the last sync status.
func (a *App) Status(ctx context.Context) error {
	st := a.syncService.Status()
	a.printf("connectivity: %s\n", st.Connectivity)
	if st.Degraded {
		a.println("local store unavailable, offline operation disabled")
		return nil
	}
	a.printf("sync: %s (%s)\n", st.Status, pendingSummary(st))
	return nil
}

// Sync drains the pending queue now.
func (a *App) Sync(ctx context.Context) error {
	res, err := a.syncService.SyncNow(ctx)
	if err != nil && res.Outcome == "" {
		a.printf("Sync failed: %s\n", err)
		return err
	}
	a.printf("sync %s: %d synced, %d retried, %d failed, %d conflicts\n",
		res.Outcome, res.Succeeded, res.Retried, res.Failed, res.Conflicts)
	if res.Err != nil {
		a.printf("stopped: %s\n", res.Err)
	}
	return nil
}

// Pending lists queued and quarantined changes.
func (a *App) Pending(ctx context.Context) error {
	q, err := a.syncService.Quarantined(ctx)
	if err != nil {
		a.printf("Pending failed: %s\n", err)
		return err
	}
	active := a.syncService.Pending()
	if len(active) == 0 && len(q) == 0 {
		a.println("Nothing pending")
		return nil
	}
	for _, c := range active {
		a.println(describeChange(c))
	}
	for _, c := range q {
		a.println(describeChange(c))
	}
	return nil
}

func describeChange(c *models.PendingChange) string {
	s := fmt.Sprintf("%s  %-6s %s/%s  attempts=%d", c.PendingID, c.Action, c.Entity, c.TargetID, c.Attempts)
	if c.Status != "" && c.Status != models.StatusPending {
		s += fmt.Sprintf("  [%s] %s", c.Status, c.Error)
	}
	return s
}

// Retry puts a failed or conflicting change back in the queue.
//
//	retry <pendingId>
func (a *App) Retry(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.println("Usage: retry <pendingId>")
		return nil
	}
	if err := a.syncService.Retry(ctx, args[0]); err != nil {
		a.printf("Retry failed: %s\n", err)
		return err
	}
	a.println("Queued for retry")
	return nil
}

// Discard drops a failed or conflicting change.
//
//	discard <pendingId>
func (a *App) Discard(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.println("Usage: discard <pendingId>")
		return nil
	}
	if err := a.syncService.Discard(ctx, args[0]); err != nil {
		a.printf("Discard failed: %s\n", err)
		return err
	}
	a.println("Discarded")
	return nil
}

// Backup uploads an encrypted snapshot of the local data.
func (a *App) Backup(ctx context.Context) error {
	key, err := a.currentKey()
	if err != nil {
		a.println("Backup needs a login")
		return err
	}
	objectKey, err := a.backup.Backup(ctx, key)
	if err != nil {
		a.printf("Backup failed: %s\n", err)
		return err
	}
	a.printf("Backup stored as %s\n", objectKey)
	return nil
}
