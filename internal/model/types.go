package model

import "time"

// ResourceType categorizes a resource within a project.
type ResourceType string

const (
	// ResourceTypeService is a deployable service that owns entities and
	// blocks and receives a build request on every commit.
	ResourceTypeService ResourceType = "service"

	// ResourceTypeProjectConfiguration holds project-wide settings. Exactly
	// one per project; excluded from build dispatch.
	ResourceTypeProjectConfiguration ResourceType = "project_configuration"
)

// OriginType identifies the kind of a lockable design object.
type OriginType string

const (
	OriginTypeEntity OriginType = "entity"
	OriginTypeBlock  OriginType = "block"
)

// ChangeType classifies an uncommitted edit.
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "create"
	ChangeTypeUpdate ChangeType = "update"
	ChangeTypeDelete ChangeType = "delete"
)

// Workspace is the top-level tenant. Users are members of workspaces;
// membership drives the access filter on every project operation.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Project groups resources inside a workspace.
type Project struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	Name        string     `json:"name"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Resource is a deployable unit inside a project that owns origins.
type Resource struct {
	ID           string       `json:"id"`
	ProjectID    string       `json:"project_id"`
	Name         string       `json:"name"`
	ResourceType ResourceType `json:"resource_type"`
	CreatedAt    time.Time    `json:"created_at"`
	DeletedAt    *time.Time   `json:"deleted_at,omitempty"`
}

// Entity is an origin of type entity: a structured design object owned by
// a resource. Fields holds the current (possibly uncommitted) definition as
// canonical JSON.
type Entity struct {
	ID             string     `json:"id"`
	ResourceID     string     `json:"resource_id"`
	Name           string     `json:"name"`
	Fields         string     `json:"fields"`
	LockedByUserID *string    `json:"locked_by_user_id,omitempty"`
	LockedAt       *time.Time `json:"locked_at,omitempty"`
	Deleted        bool       `json:"deleted"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Block is an origin of type block: a configuration object owned by a
// resource. Settings holds the current (possibly uncommitted) configuration
// as canonical JSON.
type Block struct {
	ID             string     `json:"id"`
	ResourceID     string     `json:"resource_id"`
	BlockType      string     `json:"block_type"`
	Name           string     `json:"name"`
	Settings       string     `json:"settings"`
	LockedByUserID *string    `json:"locked_by_user_id,omitempty"`
	LockedAt       *time.Time `json:"locked_at,omitempty"`
	Deleted        bool       `json:"deleted"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ChangedOrigin is a transient record describing one uncommitted edit.
// It exists only for the duration of a pending-changes query, a commit, or
// a discard, and is never stored.
type ChangedOrigin struct {
	OriginID   string     `json:"origin_id"`
	OriginType OriginType `json:"origin_type"`
	ResourceID string     `json:"resource_id"`
	ChangeType ChangeType `json:"change_type"`
}

// Commit is an immutable point-in-time snapshot of a user's pending changes
// in a project. It owns one Version per changed origin at commit time.
type Commit struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Version is an immutable snapshot of one origin's state, bound to exactly
// one commit. VersionNumber 0 is reserved for the mutable working copy and
// is never returned as a committed version.
type Version struct {
	ID            string     `json:"id"`
	OriginID      string     `json:"origin_id"`
	OriginType    OriginType `json:"origin_type"`
	CommitID      string     `json:"commit_id"`
	VersionNumber int        `json:"version_number"`
	Name          string     `json:"name"`
	Data          string     `json:"data"`
	Deleted       bool       `json:"deleted"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Build is a build-job row dispatched for one resource after a commit.
type Build struct {
	ID          string    `json:"id"`
	ResourceID  string    `json:"resource_id"`
	CommitID    string    `json:"commit_id"`
	UserID      string    `json:"user_id"`
	Message     string    `json:"message"`
	SkipPublish bool      `json:"skip_publish"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Build statuses. Only BuildStatusPending is written by this module; the
// build pipeline owns the rest of the lifecycle.
const (
	BuildStatusPending   = "pending"
	BuildStatusRunning   = "running"
	BuildStatusCompleted = "completed"
	BuildStatusFailed    = "failed"
)
