// Package build submits build jobs for resources affected by a commit.
//
// Dispatch is fire-and-forget from the committer's point of view: the
// dispatcher persists a pending job row per resource and the build pipeline
// (out of scope here) picks it up. One resource's dispatch failure never
// blocks the others.
package build

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/slipway/internal/model"
)

// Request asks for one build of one resource at one commit.
type Request struct {
	ResourceID  string
	CommitID    string
	UserID      string
	Message     string
	SkipPublish bool
}

// Dispatcher submits a single build request.
type Dispatcher interface {
	Submit(ctx context.Context, req Request) error
}

// Jobs is the persistence surface StoreDispatcher writes to.
// *store.Store satisfies this.
type Jobs interface {
	CreateBuild(ctx context.Context, b model.Build) (*model.Build, error)
}

// StoreDispatcher persists build requests as pending job rows.
type StoreDispatcher struct {
	jobs Jobs
}

// NewStoreDispatcher creates a StoreDispatcher over the given job store.
func NewStoreDispatcher(jobs Jobs) *StoreDispatcher {
	return &StoreDispatcher{jobs: jobs}
}

// Submit writes one pending build row for the request.
func (d *StoreDispatcher) Submit(ctx context.Context, req Request) error {
	_, err := d.jobs.CreateBuild(ctx, model.Build{
		ID:          uuid.Must(uuid.NewV7()).String(),
		ResourceID:  req.ResourceID,
		CommitID:    req.CommitID,
		UserID:      req.UserID,
		Message:     req.Message,
		SkipPublish: req.SkipPublish,
	})
	if err != nil {
		return fmt.Errorf("submit build for resource %s: %w", req.ResourceID, err)
	}
	return nil
}

// DispatchError collects per-resource submission failures. The commit the
// requests were dispatched for is already persisted and remains valid.
type DispatchError struct {
	Failures map[string]error // resource id -> failure
}

func (e *DispatchError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for id := range e.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("build dispatch failed for %d resource(s): %s",
		len(ids), strings.Join(ids, ", "))
}

// SubmitAll dispatches every request concurrently and waits for all of
// them. Failures are collected into a *DispatchError; successful dispatches
// are unaffected by failing ones.
func SubmitAll(ctx context.Context, d Dispatcher, reqs []Request) error {
	var (
		mu       sync.Mutex
		failures map[string]error
		wg       sync.WaitGroup
	)

	for _, req := range reqs {
		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			if err := d.Submit(ctx, req); err != nil {
				mu.Lock()
				if failures == nil {
					failures = make(map[string]error)
				}
				failures[req.ResourceID] = err
				mu.Unlock()
			}
		}(req)
	}
	wg.Wait()

	if failures != nil {
		return &DispatchError{Failures: failures}
	}
	return nil
}
