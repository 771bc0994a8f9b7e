package compliance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	api "github.com/m365ops/m365ctl/api/v1alpha1"
)

// fakeCompliance scripts the server side of the driver flows. Each round's
// item count comes from counts; the index advances on every StartSearch.
type fakeCompliance struct {
	mu sync.Mutex

	counts         []int64
	searchStatus   api.JobStatus // terminal status searches settle in
	actionStatus   api.JobStatus // terminal status actions settle in
	runningFetches int           // Running statuses served before each terminal one

	created      map[string]api.ComplianceSearch
	startCalls   int
	pendingRuns  int
	actions      []api.SearchAction
	pendingActs  int
	getSearchErr error // returned once by GetSearch after a start, then cleared
}

func newFake(counts ...int64) *fakeCompliance {
	return &fakeCompliance{
		counts:       counts,
		searchStatus: api.JobStatusCompleted,
		actionStatus: api.JobStatusCompleted,
		created:      map[string]api.ComplianceSearch{},
	}
}

func (f *fakeCompliance) CreateSearch(ctx context.Context, search api.ComplianceSearch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created[search.Name] = search
	return nil
}

func (f *fakeCompliance) GetSearch(ctx context.Context, name string) (api.ComplianceSearch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	search, ok := f.created[name]
	if !ok {
		return api.ComplianceSearch{}, fmt.Errorf("search %s: %w", name, ErrNotFound)
	}
	if f.startCalls == 0 {
		search.Status = api.JobStatusCreated
		return search, nil
	}
	if f.getSearchErr != nil {
		err := f.getSearchErr
		f.getSearchErr = nil
		return api.ComplianceSearch{}, err
	}
	if f.pendingRuns > 0 {
		f.pendingRuns--
		search.Status = api.JobStatusRunning
		return search, nil
	}
	round := f.startCalls - 1
	if round >= len(f.counts) {
		round = len(f.counts) - 1
	}
	search.Status = f.searchStatus
	search.ItemCount = f.counts[round]
	return search, nil
}

func (f *fakeCompliance) StartSearch(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	f.pendingRuns = f.runningFetches
	return nil
}

func (f *fakeCompliance) CreateAction(ctx context.Context, searchName string, actionType api.ActionType, purgeType api.PurgeType) (api.SearchAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	action := api.SearchAction{
		ID:         fmt.Sprintf("action-%d", len(f.actions)+1),
		SearchName: searchName,
		Type:       actionType,
		PurgeType:  purgeType,
		Status:     api.JobStatusRunning,
	}
	f.actions = append(f.actions, action)
	f.pendingActs = f.runningFetches
	return action, nil
}

func (f *fakeCompliance) GetAction(ctx context.Context, id string) (api.SearchAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, action := range f.actions {
		if action.ID == id {
			if f.pendingActs > 0 {
				f.pendingActs--
				action.Status = api.JobStatusRunning
				return action, nil
			}
			action.Status = f.actionStatus
			return action, nil
		}
	}
	return api.SearchAction{}, fmt.Errorf("action %s: %w", id, ErrNotFound)
}

func (f *fakeCompliance) purgeActions() []api.SearchAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.SearchAction
	for _, a := range f.actions {
		if a.Type == api.ActionPurge {
			out = append(out, a)
		}
	}
	return out
}

func newTestDriver(fake *fakeCompliance) *Driver {
	return NewDriver(fake, zap.NewNop().Sugar(),
		WithPollInterval(time.Millisecond),
		WithFetchRetryCap(3),
	)
}

var _ = Describe("Purge driver", func() {
	var cutoff time.Time

	BeforeEach(func() {
		cutoff = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	})

	Context("purge until empty", func() {
		It("purges once per non-zero round and stops at zero", func() {
			fake := newFake(5, 3, 0)
			report, err := newTestDriver(fake).Purge(context.Background(), "jdoe@contoso.com", cutoff, api.PurgeSoftDelete)

			Expect(err).To(BeNil())
			Expect(report.Rounds).To(Equal(2))
			Expect(report.ItemsPurged).To(Equal(int64(8)))
			Expect(fake.purgeActions()).To(HaveLen(2))
			Expect(fake.startCalls).To(Equal(3))
		})

		It("stops immediately when already empty", func() {
			fake := newFake(0)
			report, err := newTestDriver(fake).Purge(context.Background(), "jdoe@contoso.com", cutoff, api.PurgeSoftDelete)

			Expect(err).To(BeNil())
			Expect(report.Rounds).To(Equal(0))
			Expect(fake.purgeActions()).To(BeEmpty())
		})

		It("halts without a further search when a purge action fails", func() {
			fake := newFake(5, 3, 0)
			fake.actionStatus = api.JobStatusFailed
			report, err := newTestDriver(fake).Purge(context.Background(), "jdoe@contoso.com", cutoff, api.PurgeHardDelete)

			Expect(err).NotTo(BeNil())
			Expect(report.Rounds).To(Equal(0))
			Expect(fake.startCalls).To(Equal(1))
			Expect(fake.purgeActions()).To(HaveLen(1))
		})

		It("reports a failed search as an error", func() {
			fake := newFake(5)
			fake.searchStatus = api.JobStatusFailed
			_, err := newTestDriver(fake).Purge(context.Background(), "jdoe@contoso.com", cutoff, api.PurgeSoftDelete)

			Expect(err).NotTo(BeNil())
			Expect(fake.actions).To(BeEmpty())
		})

		It("waits through Running statuses before acting", func() {
			fake := newFake(2, 0)
			fake.runningFetches = 3
			report, err := newTestDriver(fake).Purge(context.Background(), "jdoe@contoso.com", cutoff, api.PurgeSoftDelete)

			Expect(err).To(BeNil())
			Expect(report.Rounds).To(Equal(1))
			Expect(report.ItemsPurged).To(Equal(int64(2)))
		})

		It("rides out a transient status-fetch failure", func() {
			fake := newFake(1, 0)
			fake.getSearchErr = errors.New("503 service unavailable")
			report, err := newTestDriver(fake).Purge(context.Background(), "jdoe@contoso.com", cutoff, api.PurgeSoftDelete)

			Expect(err).To(BeNil())
			Expect(report.Rounds).To(Equal(1))
		})

		It("treats PartiallyCompleted as a successful terminal state", func() {
			fake := newFake(4, 0)
			fake.searchStatus = api.JobStatusPartiallyCompleted
			report, err := newTestDriver(fake).Purge(context.Background(), "jdoe@contoso.com", cutoff, api.PurgeSoftDelete)

			Expect(err).To(BeNil())
			Expect(report.Rounds).To(Equal(1))
		})
	})

	Context("preview", func() {
		It("attaches a preview action when the search matched items", func() {
			fake := newFake(7)
			search, action, err := newTestDriver(fake).Preview(context.Background(), "jdoe@contoso.com", cutoff)

			Expect(err).To(BeNil())
			Expect(search.ItemCount).To(Equal(int64(7)))
			Expect(action).NotTo(BeNil())
			Expect(action.Type).To(Equal(api.ActionPreview))
			Expect(fake.purgeActions()).To(BeEmpty())
		})

		It("skips the action on an empty search", func() {
			fake := newFake(0)
			search, action, err := newTestDriver(fake).Preview(context.Background(), "jdoe@contoso.com", cutoff)

			Expect(err).To(BeNil())
			Expect(search.ItemCount).To(Equal(int64(0)))
			Expect(action).To(BeNil())
			Expect(fake.actions).To(BeEmpty())
		})
	})

	Context("search naming", func() {
		It("derives the name from the mailbox local part", func() {
			name := NewSearchName("purge", "jdoe@contoso.com")
			Expect(name).To(HavePrefix("purge-jdoe-"))
		})

		It("builds the cutoff predicate from the date only", func() {
			Expect(BuildQuery(cutoff)).To(Equal("(received<=2025-06-01)"))
		})
	})
})
