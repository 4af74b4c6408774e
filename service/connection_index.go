package service

import (
	"context"
	"errors"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/service/i"
)

const (
	connectionKeyPrefix  = "labyrinth:connections:"
	instanceDirectoryKey = "labyrinth:instances"
)

var (
	ErrMissingSortedSet = errors.New("connection index needs a sorted set and an instance id")
)

var _ i.ConnectionCounter = &ConnectionIndex{}

// ConnectionIndex publishes the live connections of one server instance in a sorted set
// shared by every instance. An instance only ever writes its own key; the directory set
// lists the instances so their counts can be summed.
type ConnectionIndex struct {
	set        i.SortedSet
	instanceID string
}

func NewConnectionIndex(set i.SortedSet, instanceID string) (*ConnectionIndex, error) {
	if set == nil || instanceID == "" {
		return nil, ErrMissingSortedSet
	}
	return &ConnectionIndex{
		set:        set,
		instanceID: instanceID,
	}, nil
}

// Key is the sorted set holding this instance's connections.
func (ci *ConnectionIndex) Key() string {
	return connectionKeyPrefix + ci.instanceID
}

// Join clears entries left under this instance's key and lists the instance.
func (ci *ConnectionIndex) Join(ctx context.Context) error {
	if err := ci.set.Reset(ctx, ci.Key()); err != nil {
		return err
	}
	return ci.list(ctx)
}

// Heartbeat keeps this instance's entries from expiring while it is alive.
func (ci *ConnectionIndex) Heartbeat(ctx context.Context) error {
	if err := ci.set.Refresh(ctx, ci.Key()); err != nil {
		return err
	}
	return ci.list(ctx)
}

// Leave drops this instance's entries and its directory listing.
func (ci *ConnectionIndex) Leave(ctx context.Context) error {
	if err := ci.set.Reset(ctx, ci.Key()); err != nil {
		return err
	}
	return ci.set.Remove(ctx, instanceDirectoryKey, ci.instanceID)
}

// Total implements i.ConnectionCounter. Instances whose key has expired count as zero.
func (ci *ConnectionIndex) Total(ctx context.Context) (int64, error) {
	instances, err := ci.set.Members(ctx, instanceDirectoryKey)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, id := range instances {
		total += ci.set.Count(ctx, connectionKeyPrefix+id)
	}
	return total, nil
}

func (ci *ConnectionIndex) list(ctx context.Context) error {
	return ci.set.Add(ctx, instanceDirectoryKey, float64(time.Now().UnixNano()), ci.instanceID)
}
