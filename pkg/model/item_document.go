package model

import "time"

// ItemDocument is the stored shape of an item. The reservation fields keep
// the flat layout existing clients and the advancer scans rely on.
type ItemDocument struct {
	ID         string    `bson:"_id" firestore:"-"`
	Name       string    `bson:"name" firestore:"name"`
	CreatedBy  string    `bson:"createdBy" firestore:"createdBy"`
	SharedWith []string  `bson:"sharedWith" firestore:"sharedWith"`
	CreatedAt  time.Time `bson:"createdAt" firestore:"createdAt"`
	Version    int64     `bson:"version" firestore:"version"`

	Availability           bool       `bson:"availability" firestore:"availability"`
	InUseBy                []string   `bson:"inUseBy" firestore:"inUseBy"`
	AvailabilityChangeTime *time.Time `bson:"availabilityChangeTime" firestore:"availabilityChangeTime"`
	NeedsImmediateUpdate   bool       `bson:"needsImmediateUpdate" firestore:"needsImmediateUpdate"`

	ScheduledBy                         []string    `bson:"scheduledBy" firestore:"scheduledBy"`
	AvailabilityStartTime               []time.Time `bson:"availabilityStartTime" firestore:"availabilityStartTime"`
	AvailabilityScheduledChangeTime     []time.Time `bson:"availabilityScheduledChangeTime" firestore:"availabilityScheduledChangeTime"`
	NextAvailabilityScheduledChangeTime *time.Time  `bson:"nextAvailabilityScheduledChangeTime" firestore:"nextAvailabilityScheduledChangeTime"`
	NeedsScheduledStartUpdate           bool        `bson:"needsScheduledStartUpdate" firestore:"needsScheduledStartUpdate"`
	NeedsScheduledEndUpdate             bool        `bson:"needsScheduledEndUpdate" firestore:"needsScheduledEndUpdate"`

	NextWakeAt *time.Time `bson:"nextWakeAt" firestore:"nextWakeAt"`
}
