package models

import "time"

// Follow is one directed edge in the follow graph. The composite unique
// index makes the edge set the single source of truth for the relation:
// a duplicate insert fails at the database rather than racing two reads.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}
