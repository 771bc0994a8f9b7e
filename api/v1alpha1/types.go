// Package v1alpha1 contains the wire types exchanged with the tenant
// management and compliance endpoints.
package v1alpha1

import "time"

// JobStatus is the lifecycle state of a server-side asynchronous job
// (a compliance search or an action attached to one).
type JobStatus string

const (
	JobStatusCreated            JobStatus = "Created"
	JobStatusRunning            JobStatus = "Running"
	JobStatusCompleted          JobStatus = "Completed"
	JobStatusPartiallyCompleted JobStatus = "PartiallyCompleted"
	JobStatusFailed             JobStatus = "Failed"
)

// Terminal reports whether no further status transition can occur.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusPartiallyCompleted, JobStatusFailed:
		return true
	}
	return false
}

// ActionType selects what a search action does with the matched items.
type ActionType string

const (
	ActionPreview ActionType = "Preview"
	ActionPurge   ActionType = "Purge"
)

// PurgeType selects whether purged items remain recoverable.
type PurgeType string

const (
	PurgeSoftDelete PurgeType = "SoftDelete"
	PurgeHardDelete PurgeType = "HardDelete"
)

// ComplianceSearch is a named server-side search job. The client never owns
// the job, it only holds the name; the job survives process restarts.
type ComplianceSearch struct {
	Name         string    `json:"name"`
	Query        string    `json:"query"`
	Locations    []string  `json:"locations"`
	Status       JobStatus `json:"status"`
	ItemCount    int64     `json:"itemCount"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// SearchAction is an asynchronous action (preview or purge) attached to a
// completed compliance search. Identified by the opaque ID returned on
// creation and polled independently of its search.
type SearchAction struct {
	ID           string     `json:"id"`
	SearchName   string     `json:"searchName"`
	Type         ActionType `json:"type"`
	PurgeType    PurgeType  `json:"purgeType,omitempty"`
	Status       JobStatus  `json:"status"`
	Results      string     `json:"results,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// ManagedApp is a mobile-app record held by the device management service.
type ManagedApp struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Version     string    `json:"version,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	FileName    string    `json:"fileName,omitempty"`
	CreatedAt   time.Time `json:"createdDateTime"`
}

// ManagedDevice is an enrolled device record.
type ManagedDevice struct {
	ID                string    `json:"id"`
	DeviceName        string    `json:"deviceName"`
	OperatingSystem   string    `json:"operatingSystem"`
	OSVersion         string    `json:"osVersion"`
	UserPrincipalName string    `json:"userPrincipalName"`
	ComplianceState   string    `json:"complianceState"`
	LastSyncAt        time.Time `json:"lastSyncDateTime"`
}

// Group is a directory group, resolved by display name.
type Group struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// GroupMember is a flattened directory-group membership record.
type GroupMember struct {
	ID                string `json:"id"`
	Type              string `json:"@odata.type,omitempty"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName,omitempty"`
	Mail              string `json:"mail,omitempty"`
}
