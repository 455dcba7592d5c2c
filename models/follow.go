package models

import "time"

type Follow struct {
	Follow_ID       int       `json:"id" db:"follow_id" goqu:"skipinsert"`
	Follower_ID     int       `json:"follower_id" db:"follower_id"`
	Following_ID    int       `json:"following_id" db:"following_id"`
	Datetime_Create time.Time `json:"datetime_create" db:"datetime_create" goqu:"skipinsert"`
}
