package model

import "time"

// WorkSession is one shift from clock-in to (optional) clock-out. A code is
// single-use: once its session is closed the code cannot start another one.
type WorkSession struct {
	ID        string     `json:"id" bson:"_id"`
	Code      string     `json:"code" bson:"code"`
	StartTime time.Time  `json:"startTime" bson:"startTime"`
	EndTime   *time.Time `json:"endTime" bson:"endTime"`
	TotalMs   *int64     `json:"totalMs" bson:"totalMs"`
}

// Active reports whether the session has no end time recorded yet.
func (s *WorkSession) Active() bool {
	return s.EndTime == nil
}
