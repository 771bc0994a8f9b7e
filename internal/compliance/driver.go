package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/m365ops/m365ctl/api/v1alpha1"
	"github.com/m365ops/m365ctl/pkg/poller"
)

// Driver runs preview and purge flows over a Compliance client. Both flows
// share the same shape: ensure a named search exists, run it, poll it to a
// terminal state, then act on the outcome.
type Driver struct {
	client   Compliance
	log      *zap.SugaredLogger
	interval time.Duration
	errorCap int
}

type DriverOption func(*Driver)

func WithPollInterval(d time.Duration) DriverOption {
	return func(dr *Driver) { dr.interval = d }
}

func WithFetchRetryCap(n int) DriverOption {
	return func(dr *Driver) { dr.errorCap = n }
}

func NewDriver(client Compliance, log *zap.SugaredLogger, opts ...DriverOption) *Driver {
	d := &Driver{
		client:   client,
		log:      log,
		interval: poller.DefaultInterval,
		errorCap: poller.DefaultErrorCap,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// PurgeReport summarizes a purge-until-empty run.
type PurgeReport struct {
	SearchName  string
	Rounds      int
	ItemsPurged int64
	FinalStatus api.JobStatus
}

// BuildQuery builds the search predicate for items received on or before
// the cutoff. The cutoff is only ever read, never adjusted.
func BuildQuery(cutoff time.Time) string {
	return fmt.Sprintf("(received<=%s)", cutoff.Format("2006-01-02"))
}

// NewSearchName derives a unique server-side job name for a mailbox.
func NewSearchName(prefix, mailbox string) string {
	local := mailbox
	if at := strings.IndexByte(mailbox, '@'); at > 0 {
		local = mailbox[:at]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, local, uuid.NewString()[:8])
}

// ensureSearch creates the named search unless the server already has it;
// create is idempotent within a run, so purge rounds reuse one search.
func (d *Driver) ensureSearch(ctx context.Context, name, mailbox string, cutoff time.Time) error {
	_, err := d.client.GetSearch(ctx, name)
	if err == nil {
		d.log.Infof("reusing existing search %s", name)
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("checking for search %s: %w", name, err)
	}
	search := api.ComplianceSearch{
		Name:      name,
		Query:     BuildQuery(cutoff),
		Locations: []string{mailbox},
	}
	if err := d.client.CreateSearch(ctx, search); err != nil {
		return fmt.Errorf("creating search %s: %w", name, err)
	}
	return nil
}

// runSearch starts the named search and polls it to a terminal state.
func (d *Driver) runSearch(ctx context.Context, name string) (api.ComplianceSearch, error) {
	if err := d.client.StartSearch(ctx, name); err != nil {
		return api.ComplianceSearch{}, fmt.Errorf("starting search %s: %w", name, err)
	}
	p := poller.New(
		func(ctx context.Context) (api.ComplianceSearch, error) {
			return d.client.GetSearch(ctx, name)
		},
		func(s api.ComplianceSearch) bool { return s.Status.Terminal() },
		poller.WithInterval[api.ComplianceSearch](d.interval),
		poller.WithErrorCap[api.ComplianceSearch](d.errorCap),
	)
	return p.Wait(ctx)
}

// runAction creates an action against a completed search and polls it to a
// terminal state.
func (d *Driver) runAction(ctx context.Context, searchName string, actionType api.ActionType, purgeType api.PurgeType) (api.SearchAction, error) {
	action, err := d.client.CreateAction(ctx, searchName, actionType, purgeType)
	if err != nil {
		return api.SearchAction{}, fmt.Errorf("creating %s action for search %s: %w", strings.ToLower(string(actionType)), searchName, err)
	}
	p := poller.New(
		func(ctx context.Context) (api.SearchAction, error) {
			return d.client.GetAction(ctx, action.ID)
		},
		func(a api.SearchAction) bool { return a.Status.Terminal() },
		poller.WithInterval[api.SearchAction](d.interval),
		poller.WithErrorCap[api.SearchAction](d.errorCap),
	)
	return p.Wait(ctx)
}

// Preview runs the search once and, when anything matched, attaches a
// preview action and returns its final payload for display. Nothing is
// deleted.
func (d *Driver) Preview(ctx context.Context, mailbox string, cutoff time.Time) (api.ComplianceSearch, *api.SearchAction, error) {
	name := NewSearchName("preview", mailbox)
	if err := d.ensureSearch(ctx, name, mailbox, cutoff); err != nil {
		return api.ComplianceSearch{}, nil, err
	}

	search, err := d.runSearch(ctx, name)
	if err != nil {
		return api.ComplianceSearch{}, nil, err
	}
	if search.Status == api.JobStatusFailed {
		return search, nil, fmt.Errorf("search %s failed: %s", name, search.ErrorMessage)
	}
	if search.ItemCount == 0 {
		d.log.Infof("search %s matched no items", name)
		return search, nil, nil
	}

	action, err := d.runAction(ctx, name, api.ActionPreview, "")
	if err != nil {
		return search, nil, err
	}
	if action.Status == api.JobStatusFailed {
		return search, &action, fmt.Errorf("preview action %s failed: %s", action.ID, action.ErrorMessage)
	}
	return search, &action, nil
}

// Purge repeats search+purge rounds until the search reports zero matching
// items. There is no round cap and no backoff: the loop ends only on a zero
// count, a Failed terminal state, or context cancellation. A Failed purge
// action halts the loop without issuing a further search.
func (d *Driver) Purge(ctx context.Context, mailbox string, cutoff time.Time, purgeType api.PurgeType) (PurgeReport, error) {
	name := NewSearchName("purge", mailbox)
	report := PurgeReport{SearchName: name}

	if err := d.ensureSearch(ctx, name, mailbox, cutoff); err != nil {
		return report, err
	}

	for {
		search, err := d.runSearch(ctx, name)
		if err != nil {
			return report, err
		}
		report.FinalStatus = search.Status
		if search.Status == api.JobStatusFailed {
			return report, fmt.Errorf("search %s failed: %s", name, search.ErrorMessage)
		}
		if search.ItemCount == 0 {
			d.log.Infof("search %s reports no remaining items after %d round(s)", name, report.Rounds)
			return report, nil
		}

		d.log.Infof("search %s matched %d item(s), purging (%s)", name, search.ItemCount, purgeType)
		action, err := d.runAction(ctx, name, api.ActionPurge, purgeType)
		if err != nil {
			return report, err
		}
		report.FinalStatus = action.Status
		if action.Status == api.JobStatusFailed {
			return report, fmt.Errorf("purge action %s failed: %s", action.ID, action.ErrorMessage)
		}
		report.Rounds++
		report.ItemsPurged += search.ItemCount
	}
}
