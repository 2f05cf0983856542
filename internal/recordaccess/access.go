package recordaccess

import (
	"context"
	"errors"
	"strings"

	"minutes/internal/api"
	"minutes/internal/store"
)

// ErrNotFound reports a record that does not exist in the requested group.
var ErrNotFound = errors.New("record not found")

// Access provides record reads regardless of API or direct store backing.
type Access interface {
	List(ctx context.Context, groupID string, limit int) ([]api.Record, error)
	Get(ctx context.Context, groupID, id string) (api.Record, error)
	History(ctx context.Context, groupID, id string) ([]api.Revision, error)
	// Source names the backing: "daemon" or "store".
	Source() string
}

// NewAPIAccess returns an Access backed by the daemon HTTP API.
func NewAPIAccess(client *api.Client) Access {
	return &apiAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct store reads. An empty
// group argument resolves to defaultGroup, matching the daemon.
func NewStoreAccess(st *store.Store, defaultGroup string) Access {
	return &storeAccess{store: st, defaultGroup: strings.TrimSpace(defaultGroup)}
}

type apiAccess struct {
	client *api.Client
}

func (a *apiAccess) Source() string { return "daemon" }

func (a *apiAccess) List(ctx context.Context, groupID string, limit int) ([]api.Record, error) {
	return a.client.List(ctx, groupID, limit)
}

func (a *apiAccess) Get(ctx context.Context, groupID, id string) (api.Record, error) {
	rec, err := a.client.Get(ctx, groupID, id)
	if api.IsNotFound(err) {
		return api.Record{}, ErrNotFound
	}
	return rec, err
}

func (a *apiAccess) History(ctx context.Context, groupID, id string) ([]api.Revision, error) {
	resp, err := a.client.History(ctx, groupID, id)
	if api.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return resp.Revisions, nil
}

type storeAccess struct {
	store        *store.Store
	defaultGroup string
}

func (a *storeAccess) Source() string { return "store" }

func (a *storeAccess) group(groupID string) string {
	if groupID = strings.TrimSpace(groupID); groupID != "" {
		return groupID
	}
	return a.defaultGroup
}

func (a *storeAccess) List(ctx context.Context, groupID string, limit int) ([]api.Record, error) {
	recs, err := a.store.List(ctx, a.group(groupID), limit)
	if err != nil {
		return nil, err
	}
	return api.FromRecords(recs), nil
}

func (a *storeAccess) Get(ctx context.Context, groupID, id string) (api.Record, error) {
	rec, err := a.store.Get(ctx, a.group(groupID), id)
	if errors.Is(err, store.ErrNotFound) {
		return api.Record{}, ErrNotFound
	}
	if err != nil {
		return api.Record{}, err
	}
	return api.FromRecord(rec), nil
}

func (a *storeAccess) History(ctx context.Context, groupID, id string) ([]api.Revision, error) {
	revs, err := a.store.History(ctx, a.group(groupID), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return api.FromRevisions(revs), nil
}
